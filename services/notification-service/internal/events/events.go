package events

import (
	"encoding/json"
	"fmt"
)

// QueueBookingInformation carries booking confirmations from the booking
// service. The routing key equals the queue name on the direct exchange.
const QueueBookingInformation = "GET_BOOKING_INFORMATION"

type Booking struct {
	ID           string `json:"id"`
	RoomID       int64  `json:"room_id"`
	GuestID      string `json:"guest_id"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
}

type BookingInformation struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Booking  Booking `json:"booking"`
}

func Unmarshal[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
