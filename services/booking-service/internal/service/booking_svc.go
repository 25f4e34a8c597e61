package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/you/hostel-booking/services/booking-service/internal/domain"
	"github.com/you/hostel-booking/services/booking-service/internal/roomgw"
)

// QueueBookingInformation is the durable queue the notification service
// consumes booking confirmations from.
const QueueBookingInformation = "GET_BOOKING_INFORMATION"

var (
	ErrAvailabilityDenied = errors.New("requested dates are not available")
	ErrForbidden          = errors.New("not enough rights")
)

// RetractionError reports a failed date retraction. By the time the caller
// sees it the just-created booking row has already been deleted again.
type RetractionError struct{ Cause error }

func (e *RetractionError) Error() string {
	return fmt.Sprintf("retract reserved dates: %v", e.Cause)
}
func (e *RetractionError) Unwrap() error { return e.Cause }

// RestorationError reports a cancellation that deleted the booking but
// could not re-open all of its future dates. The deletion stands; the
// unrestored dates need operator reconciliation.
type RestorationError struct {
	BookingID string
	Failed    []time.Time
	Cause     error
}

func (e *RestorationError) Error() string {
	return fmt.Sprintf("booking %s cancelled but %d date(s) were not restored: %v", e.BookingID, len(e.Failed), e.Cause)
}
func (e *RestorationError) Unwrap() error { return e.Cause }

// BookingStore is the local persistence contract. It knows nothing about
// the room subsystem.
type BookingStore interface {
	Create(ctx context.Context, b *domain.Booking) error
	ByID(ctx context.Context, id string) (*domain.Booking, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, size int32, checkDate *time.Time) ([]domain.Booking, error)
}

// AvailabilityGateway is the boundary to the room subsystem's per-date
// availability state.
type AvailabilityGateway interface {
	AvailableDates(ctx context.Context, roomID int64, token string) ([]time.Time, error)
	Retract(ctx context.Context, roomID int64, dates []time.Time, token string) error
	Restore(ctx context.Context, roomID int64, date time.Time, token string) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Guest is the identity slice of the verified token the saga needs.
type Guest struct {
	Sub      string
	Username string
	Email    string
	Admin    bool
}

type CreateInput struct {
	RoomID   int64
	GuestID  string
	CheckIn  time.Time
	CheckOut time.Time
}

// BookingSvc coordinates the create and cancel booking sagas. Each saga
// runs its steps strictly one after another inside the request context.
type BookingSvc struct {
	store BookingStore
	rooms AvailabilityGateway
	pub   EventPublisher
	log   *logrus.Logger
	now   func() time.Time
}

func NewBookingSvc(store BookingStore, rooms AvailabilityGateway, pub EventPublisher, log *logrus.Logger) *BookingSvc {
	return &BookingSvc{store: store, rooms: rooms, pub: pub, log: log, now: time.Now}
}

// WithClock overrides the time source; the cancellation saga's past-date
// cutoff depends on it.
func (s *BookingSvc) WithClock(now func() time.Time) *BookingSvc {
	s.now = now
	return s
}

type bookingPayload struct {
	ID           string `json:"id"`
	RoomID       int64  `json:"room_id"`
	GuestID      string `json:"guest_id"`
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
}

type bookingCreatedEvent struct {
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Booking  bookingPayload `json:"booking"`
}

// Create runs the create-booking saga:
//
//	range -> availability check -> persist -> retract -> notify
//
// Availability is checked before persisting so a denied request writes
// nothing. Retraction runs after persisting, because it is only meaningful
// for a booking that durably exists; the price is the rollback below when
// retraction fails.
func (s *BookingSvc) Create(ctx context.Context, in CreateInput, guest Guest, token string) (*domain.Booking, error) {
	guestID := in.GuestID
	if guestID == "" {
		guestID = guest.Sub
	}
	if guestID != guest.Sub && !guest.Admin {
		return nil, ErrForbidden
	}

	requested, err := domain.DateRange(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}

	available, err := s.rooms.AvailableDates(ctx, in.RoomID, token)
	if err != nil {
		return nil, err
	}
	if !subset(requested, available) {
		return nil, ErrAvailabilityDenied
	}

	b := &domain.Booking{
		RoomID:       in.RoomID,
		GuestID:      guestID,
		CheckInDate:  domain.Day(in.CheckIn),
		CheckOutDate: domain.Day(in.CheckOut),
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}

	if err := s.rooms.Retract(ctx, in.RoomID, requested, token); err != nil {
		// Compensate: the booking must not survive a reservation whose
		// dates were never taken out of the room's availability.
		if delErr := s.store.Delete(ctx, b.ID); delErr != nil {
			s.log.WithError(delErr).WithField("booking_id", b.ID).
				Error("rollback after failed retraction did not delete booking")
		}
		return nil, &RetractionError{Cause: err}
	}

	s.notifyCreated(ctx, guest, b)
	return b, nil
}

// notifyCreated publishes the confirmation fire-and-forget. A broker
// failure is logged and never changes the saga's outcome.
func (s *BookingSvc) notifyCreated(ctx context.Context, guest Guest, b *domain.Booking) {
	ev := bookingCreatedEvent{
		Username: guest.Username,
		Email:    guest.Email,
		Booking: bookingPayload{
			ID:           b.ID,
			RoomID:       b.RoomID,
			GuestID:      b.GuestID,
			CheckInDate:  b.CheckInDate.Format(roomgw.DateFormat),
			CheckOutDate: b.CheckOutDate.Format(roomgw.DateFormat),
		},
	}
	if err := s.pub.PublishJSON(ctx, QueueBookingInformation, ev); err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).
			Warn("booking confirmation not published")
	}
}

// Cancel runs the cancellation saga. The row deletion is the
// authoritative, user-visible action and is never rolled back; restoring
// the room's dates afterwards is best effort and reported when incomplete.
func (s *BookingSvc) Cancel(ctx context.Context, id string, guest Guest, token string) error {
	b, err := s.store.ByID(ctx, id)
	if err != nil {
		return err
	}
	if b.GuestID != guest.Sub && !guest.Admin {
		return ErrForbidden
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	dates, err := b.DateRange()
	if err != nil {
		// Stored check-in/check-out always satisfy the range invariant.
		return &RestorationError{BookingID: id, Cause: err}
	}

	today := domain.Day(s.now())
	var failed []time.Time
	var cause error
	for _, d := range dates {
		if d.Before(today) {
			continue // past dates are not restorable inventory
		}
		if err := s.rooms.Restore(ctx, b.RoomID, d, token); err != nil {
			failed = append(failed, d)
			cause = err
		}
	}
	if len(failed) > 0 {
		s.log.WithError(cause).WithFields(logrus.Fields{
			"booking_id": id,
			"room_id":    b.RoomID,
			"dates":      len(failed),
		}).Error("availability restoration incomplete after cancellation")
		return &RestorationError{BookingID: id, Failed: failed, Cause: cause}
	}
	return nil
}

func (s *BookingSvc) Get(ctx context.Context, id string) (*domain.Booking, error) {
	return s.store.ByID(ctx, id)
}

func (s *BookingSvc) List(ctx context.Context, page, size int32, checkDate *time.Time) ([]domain.Booking, error) {
	return s.store.List(ctx, page, size, checkDate)
}

// subset reports whether every wanted date is confirmed available.
func subset(wanted, available []time.Time) bool {
	set := make(map[time.Time]struct{}, len(available))
	for _, d := range available {
		set[domain.Day(d)] = struct{}{}
	}
	for _, d := range wanted {
		if _, ok := set[domain.Day(d)]; !ok {
			return false
		}
	}
	return true
}
