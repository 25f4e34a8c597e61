package domain

import (
	"errors"
	"time"
)

var ErrInvalidDateRange = errors.New("check_out_date before check_in_date")

// Booking is a confirmed reservation. The composite unique index keeps a
// room from carrying two bookings with the identical date range.
type Booking struct {
	ID           string    `gorm:"primaryKey"`
	RoomID       int64     `gorm:"index;uniqueIndex:idx_booking_room_range"`
	GuestID      string    `gorm:"index"`
	CheckInDate  time.Time `gorm:"type:date;uniqueIndex:idx_booking_room_range"`
	CheckOutDate time.Time `gorm:"type:date;uniqueIndex:idx_booking_room_range"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DateRange returns the inclusive sequence of booked calendar dates.
// Never cached; both the creation and cancellation paths recompute it so
// they cannot disagree about which dates a booking touches.
func (b *Booking) DateRange() ([]time.Time, error) {
	return DateRange(b.CheckInDate, b.CheckOutDate)
}

// DateRange expands (checkIn, checkOut) into every calendar date between
// them, both ends inclusive, ascending.
func DateRange(checkIn, checkOut time.Time) ([]time.Time, error) {
	in, out := Day(checkIn), Day(checkOut)
	if out.Before(in) {
		return nil, ErrInvalidDateRange
	}
	days := int(out.Sub(in).Hours()/24) + 1
	dates := make([]time.Time, 0, days)
	for d := in; !d.After(out); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
