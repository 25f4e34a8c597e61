package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/you/hostel-booking/pkg/middlewares"
	"github.com/you/hostel-booking/services/room-service/internal/domain"
	"github.com/you/hostel-booking/services/room-service/internal/repository"
	"github.com/you/hostel-booking/services/room-service/internal/service"
)

const dateFormat = "2006-01-02"

type Handler struct {
	svc *service.AvailableDateSvc
	log *logrus.Logger
}

func NewHandler(svc *service.AvailableDateSvc, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/room/available_date")
	g.Use(middlewares.JWTAuth())
	g.GET("/:room_id/", h.ListByRoom)
	g.POST("/", h.Create)
	g.DELETE("/", h.Retract)
}

type availableDateOut struct {
	ID     int64  `json:"id"`
	RoomID int64  `json:"room_id"`
	Date   string `json:"date"`
}

func toOut(d *domain.RoomAvailableDate) availableDateOut {
	return availableDateOut{ID: d.ID, RoomID: d.RoomID, Date: d.Date.Format(dateFormat)}
}

// ListByRoom handles GET /room/available_date/:room_id/.
func (h *Handler) ListByRoom(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id must be an integer"})
		return
	}
	dates, err := h.svc.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		h.log.WithError(err).Error("list available dates failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	out := make([]availableDateOut, 0, len(dates))
	for i := range dates {
		out = append(out, toOut(&dates[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Create handles POST /room/available_date/ — restoring a date after a
// cancellation, or seeding new inventory.
func (h *Handler) Create(c *gin.Context) {
	var in struct {
		RoomID int64  `json:"room_id" binding:"required"`
		Date   string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.ParseInLocation(dateFormat, in.Date, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	d, err := h.svc.Create(c.Request.Context(), in.RoomID, date)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "date is already available"})
			return
		}
		h.log.WithError(err).Error("create available date failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, toOut(d))
}

// Retract handles DELETE /room/available_date/. The delete is
// conditional: if any requested date is already gone the whole request is
// rejected with 409 and nothing changes.
func (h *Handler) Retract(c *gin.Context) {
	var in struct {
		RoomID int64    `json:"room_id" binding:"required"`
		Dates  []string `json:"dates" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dates := make([]time.Time, 0, len(in.Dates))
	for _, s := range in.Dates {
		d, err := time.ParseInLocation(dateFormat, s, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYY-MM-DD"})
			return
		}
		dates = append(dates, d)
	}
	if err := h.svc.Retract(c.Request.Context(), in.RoomID, dates); err != nil {
		if errors.Is(err, repository.ErrDateUnavailable) {
			c.JSON(http.StatusConflict, gin.H{"error": "some dates are no longer available"})
			return
		}
		h.log.WithError(err).Error("retract available dates failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}
