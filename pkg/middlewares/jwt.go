package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	a "github.com/you/hostel-booking/pkg/auth"
)

const (
	CtxClaims = "claims"
	CtxToken  = "token"
)

// JWTAuth validates the bearer token and stashes both the claims and the
// raw token string. The raw token is kept because outbound calls to the
// room subsystem forward it unmodified.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		tok := strings.TrimPrefix(h, "Bearer ")
		claims, err := a.ParseValidate(tok)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(CtxClaims, claims)
		c.Set(CtxToken, tok)
		c.Next()
	}
}

// RequireAdmin must run after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := Claims(c); claims == nil || !claims.Admin {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func Claims(c *gin.Context) *a.Claims {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*a.Claims)
	return claims
}

func Token(c *gin.Context) string {
	v, _ := c.Get(CtxToken)
	tok, _ := v.(string)
	return tok
}
