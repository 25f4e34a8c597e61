package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/you/hostel-booking/pkg/middlewares"
	"github.com/you/hostel-booking/services/booking-service/internal/domain"
	"github.com/you/hostel-booking/services/booking-service/internal/repository"
	"github.com/you/hostel-booking/services/booking-service/internal/roomgw"
	"github.com/you/hostel-booking/services/booking-service/internal/service"
)

// BookingService is what the HTTP layer needs from the saga coordinator.
type BookingService interface {
	Create(ctx context.Context, in service.CreateInput, guest service.Guest, token string) (*domain.Booking, error)
	Cancel(ctx context.Context, id string, guest service.Guest, token string) error
	Get(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, page, size int32, checkDate *time.Time) ([]domain.Booking, error)
}

type Handler struct {
	svc BookingService
	log *logrus.Logger
}

func NewHandler(svc BookingService, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/booking")
	g.Use(middlewares.JWTAuth())
	g.POST("/", h.Create)
	g.GET("/", h.List)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
}

type bookingIn struct {
	RoomID       int64  `json:"room_id" binding:"required"`
	GuestID      string `json:"guest_id"`
	CheckInDate  string `json:"check_in_date" binding:"required"`  // 2006-01-02
	CheckOutDate string `json:"check_out_date" binding:"required"` // 2006-01-02
}

type bookingOut struct {
	ID           string `json:"id"`
	RoomID       int64  `json:"room_id"`
	GuestID      string `json:"guest_id"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
}

func toOut(b *domain.Booking) bookingOut {
	return bookingOut{
		ID:           b.ID,
		RoomID:       b.RoomID,
		GuestID:      b.GuestID,
		CheckInDate:  b.CheckInDate.Format(roomgw.DateFormat),
		CheckOutDate: b.CheckOutDate.Format(roomgw.DateFormat),
	}
}

func guestFrom(c *gin.Context) service.Guest {
	claims := middlewares.Claims(c)
	if claims == nil {
		return service.Guest{}
	}
	return service.Guest{
		Sub:      claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		Admin:    claims.Admin,
	}
}

// Create handles POST /booking/.
func (h *Handler) Create(c *gin.Context) {
	var in bookingIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, err := time.ParseInLocation(roomgw.DateFormat, in.CheckInDate, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in_date must be YYYY-MM-DD"})
		return
	}
	checkOut, err := time.ParseInLocation(roomgw.DateFormat, in.CheckOutDate, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out_date must be YYYY-MM-DD"})
		return
	}

	b, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		RoomID:   in.RoomID,
		GuestID:  in.GuestID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	}, guestFrom(c), middlewares.Token(c))
	if err != nil {
		h.createError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOut(b))
}

func (h *Handler) createError(c *gin.Context, err error) {
	var rejected *roomgw.RejectedError
	var retraction *service.RetractionError

	switch {
	case errors.Is(err, domain.ErrInvalidDateRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAvailabilityDenied):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The room is already booked for these dates."})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "An identical booking already exists."})
	case errors.As(err, &retraction):
		// Compensation already ran; report the failure that triggered it.
		if errors.Is(retraction.Cause, roomgw.ErrUnavailable) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Reservation was not completed: " + retraction.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reservation was not completed: " + retraction.Error()})
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadRequest, gin.H{"error": rejected.Error()})
	case errors.Is(err, roomgw.ErrUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		h.log.WithError(err).Error("create booking failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Delete handles DELETE /booking/:id. A clean cancellation answers 204.
// When the booking was deleted but some future dates could not be
// re-opened, the caller gets 200 with a caveat instead of an error: the
// cancellation did happen.
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	err := h.svc.Cancel(c.Request.Context(), id, guestFrom(c), middlewares.Token(c))
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var restoration *service.RestorationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &restoration):
		dates := make([]string, 0, len(restoration.Failed))
		for _, d := range restoration.Failed {
			dates = append(dates, d.Format(roomgw.DateFormat))
		}
		c.JSON(http.StatusOK, gin.H{
			"status":          "cancelled",
			"warning":         "availability restoration incomplete",
			"unrestored_date": dates,
		})
	default:
		h.log.WithError(err).Error("cancel booking failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Get handles GET /booking/:id.
func (h *Handler) Get(c *gin.Context) {
	b, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		h.log.WithError(err).Error("get booking failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toOut(b))
}

// List handles GET /booking/?check_date=YYYY-MM-DD&page=0&size=10.
func (h *Handler) List(c *gin.Context) {
	var checkDate *time.Time
	if q := c.Query("check_date"); q != "" {
		d, err := time.ParseInLocation(roomgw.DateFormat, q, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "check_date must be YYYY-MM-DD"})
			return
		}
		checkDate = &d
	}
	page := queryInt32(c, "page", 0)
	size := queryInt32(c, "size", 10)

	bookings, err := h.svc.List(c.Request.Context(), page, size, checkDate)
	if err != nil {
		h.log.WithError(err).Error("list bookings failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	out := make([]bookingOut, 0, len(bookings))
	for i := range bookings {
		out = append(out, toOut(&bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

func queryInt32(c *gin.Context, key string, def int32) int32 {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return def
	}
	return int32(n)
}
