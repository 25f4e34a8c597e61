package service

import (
	"context"
	"time"

	"github.com/you/hostel-booking/services/room-service/internal/domain"
)

// AvailableDateStore is implemented by the gorm repository.
type AvailableDateStore interface {
	ListByRoom(ctx context.Context, roomID int64) ([]domain.RoomAvailableDate, error)
	Create(ctx context.Context, d *domain.RoomAvailableDate) error
	DeleteAllIfPresent(ctx context.Context, roomID int64, dates []time.Time) error
}

type AvailableDateSvc struct {
	repo AvailableDateStore
}

func NewAvailableDateSvc(repo AvailableDateStore) *AvailableDateSvc {
	return &AvailableDateSvc{repo: repo}
}

func (s *AvailableDateSvc) ListByRoom(ctx context.Context, roomID int64) ([]domain.RoomAvailableDate, error) {
	return s.repo.ListByRoom(ctx, roomID)
}

func (s *AvailableDateSvc) Create(ctx context.Context, roomID int64, date time.Time) (*domain.RoomAvailableDate, error) {
	d := &domain.RoomAvailableDate{RoomID: roomID, Date: domain.Day(date)}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Retract deletes the dates all-or-nothing; the conditional semantics
// live in the repository.
func (s *AvailableDateSvc) Retract(ctx context.Context, roomID int64, dates []time.Time) error {
	return s.repo.DeleteAllIfPresent(ctx, roomID, dates)
}
