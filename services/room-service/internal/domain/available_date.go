package domain

import "time"

// RoomAvailableDate is one calendar date on which a room can be booked.
// Booking a room consumes these rows; cancelling re-creates them.
type RoomAvailableDate struct {
	ID        int64     `gorm:"primaryKey"`
	RoomID    int64     `gorm:"uniqueIndex:idx_room_date"`
	Date      time.Time `gorm:"type:date;uniqueIndex:idx_room_date"`
	CreatedAt time.Time
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
