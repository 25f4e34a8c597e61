package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/hostel-booking/services/room-service/internal/domain"
)

var (
	ErrDuplicate       = errors.New("date_already_available")
	ErrDateUnavailable = errors.New("date_unavailable")
)

type AvailableDateRepo struct{ db *gorm.DB }

func NewAvailableDateRepo(db *gorm.DB) *AvailableDateRepo {
	return &AvailableDateRepo{db: db}
}

func (r *AvailableDateRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.RoomAvailableDate{})
}

func (r *AvailableDateRepo) ListByRoom(ctx context.Context, roomID int64) ([]domain.RoomAvailableDate, error) {
	var out []domain.RoomAvailableDate
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("date").
		Find(&out).Error
	return out, err
}

func (r *AvailableDateRepo) Create(ctx context.Context, d *domain.RoomAvailableDate) error {
	d.Date = domain.Day(d.Date)
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// DeleteAllIfPresent removes the given dates for a room in one
// transaction, but only if every one of them still exists. The candidate
// rows are locked first, so two concurrent retractions of overlapping
// dates cannot both pass the presence check: the loser sees
// ErrDateUnavailable instead of silently double-booking.
func (r *AvailableDateRepo) DeleteAllIfPresent(ctx context.Context, roomID int64, dates []time.Time) error {
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		days = append(days, domain.Day(d))
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []domain.RoomAvailableDate
		err := tx.Model(&domain.RoomAvailableDate{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room_id = ? AND date IN ?", roomID, days).
			Find(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) != len(days) {
			return ErrDateUnavailable
		}
		return tx.Where("room_id = ? AND date IN ?", roomID, days).
			Delete(&domain.RoomAvailableDate{}).Error
	})
}
