package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/you/hostel-booking/services/booking-service/internal/domain"
)

var (
	ErrDuplicate = errors.New("booking_duplicate")
	ErrNotFound  = errors.New("booking_not_found")
)

type BookingRepo struct{ db *gorm.DB }

func NewBookingRepo(db *gorm.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Migrate() error {
	return r.db.AutoMigrate(&domain.Booking{})
}

// Create persists the booking. A unique violation on the room+range index
// is a business rejection, not a transient fault: it is returned as
// ErrDuplicate and never retried.
func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *BookingRepo) ByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Booking{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns an id-ordered page. With checkDate set it keeps only
// bookings whose stored range straddles that date.
func (r *BookingRepo) List(ctx context.Context, page, size int32, checkDate *time.Time) ([]domain.Booking, error) {
	if size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}
	qb := r.db.WithContext(ctx).Model(&domain.Booking{})
	if checkDate != nil {
		d := domain.Day(*checkDate)
		qb = qb.Where("check_in_date <= ? AND check_out_date >= ?", d, d)
	}
	var out []domain.Booking
	if err := qb.Order("id").Limit(int(size)).Offset(int(page * size)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
