package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/hostel-booking/services/booking-service/internal/domain"
	"github.com/you/hostel-booking/services/booking-service/internal/repository"
	"github.com/you/hostel-booking/services/booking-service/internal/roomgw"
	"github.com/you/hostel-booking/services/booking-service/internal/service"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeStore struct {
	bookings  map[string]domain.Booking
	createErr error
	deleteErr error
	creates   int
	deletes   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: map[string]domain.Booking{}}
}

func (f *fakeStore) Create(_ context.Context, b *domain.Booking) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	if b.ID == "" {
		b.ID = "bk-1"
	}
	f.bookings[b.ID] = *b
	return nil
}

func (f *fakeStore) ByID(_ context.Context, id string) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.bookings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, _, _ int32, _ *time.Time) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0, len(f.bookings))
	for _, b := range f.bookings {
		out = append(out, b)
	}
	return out, nil
}

type fakeGateway struct {
	available  []time.Time
	availErr   error
	retractErr error
	restoreErr map[string]error // keyed by YYYY-MM-DD
	retracts   [][]time.Time
	restores   []time.Time
	seenTokens []string
}

func (f *fakeGateway) AvailableDates(_ context.Context, _ int64, token string) ([]time.Time, error) {
	f.seenTokens = append(f.seenTokens, token)
	if f.availErr != nil {
		return nil, f.availErr
	}
	return f.available, nil
}

func (f *fakeGateway) Retract(_ context.Context, _ int64, dates []time.Time, token string) error {
	f.seenTokens = append(f.seenTokens, token)
	if f.retractErr != nil {
		return f.retractErr
	}
	f.retracts = append(f.retracts, dates)
	return nil
}

func (f *fakeGateway) Restore(_ context.Context, _ int64, d time.Time, token string) error {
	f.seenTokens = append(f.seenTokens, token)
	if err, ok := f.restoreErr[d.Format(roomgw.DateFormat)]; ok {
		return err
	}
	f.restores = append(f.restores, d)
	return nil
}

type fakePublisher struct {
	err       error
	published []any
}

func (f *fakePublisher) PublishJSON(_ context.Context, _ string, v any) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, v)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newSvc(store *fakeStore, gw *fakeGateway, pub *fakePublisher) *service.BookingSvc {
	return service.NewBookingSvc(store, gw, pub, quietLogger())
}

var guest = service.Guest{Sub: "u-7", Username: "ann", Email: "ann@example.com"}

func createInput() service.CreateInput {
	return service.CreateInput{
		RoomID:   4,
		GuestID:  "u-7",
		CheckIn:  date(2024, 1, 1),
		CheckOut: date(2024, 1, 3),
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{available: []time.Time{
		date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3), date(2024, 1, 4),
	}}
	pub := &fakePublisher{}
	svc := newSvc(store, gw, pub)

	b, err := svc.Create(context.Background(), createInput(), guest, "tok-123")
	require.NoError(t, err)
	require.NotNil(t, b)

	assert.Len(t, store.bookings, 1, "exactly one booking persisted")
	require.Len(t, gw.retracts, 1, "exactly one retract call")
	assert.Equal(t, []time.Time{date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3)}, gw.retracts[0],
		"retract must carry exactly the requested date set")
	assert.Len(t, pub.published, 1)
	for _, tok := range gw.seenTokens {
		assert.Equal(t, "tok-123", tok, "bearer token forwarded unmodified")
	}
}

func TestCreateBookingAvailabilityDenied(t *testing.T) {
	store := newFakeStore()
	// one requested date missing from the available set
	gw := &fakeGateway{available: []time.Time{date(2024, 1, 1), date(2024, 1, 3)}}
	svc := newSvc(store, gw, &fakePublisher{})

	_, err := svc.Create(context.Background(), createInput(), guest, "tok")
	assert.ErrorIs(t, err, service.ErrAvailabilityDenied)
	assert.Zero(t, store.creates, "no booking may be persisted")
	assert.Empty(t, gw.retracts, "no retract call may happen")
}

func TestCreateBookingInvalidRange(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{}
	svc := newSvc(store, gw, &fakePublisher{})

	in := createInput()
	in.CheckIn, in.CheckOut = in.CheckOut, in.CheckIn
	_, err := svc.Create(context.Background(), in, guest, "tok")
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	assert.Empty(t, gw.seenTokens, "no remote call before validation")
}

func TestCreateBookingGatewayUnavailable(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{availErr: roomgw.ErrUnavailable}
	svc := newSvc(store, gw, &fakePublisher{})

	_, err := svc.Create(context.Background(), createInput(), guest, "tok")
	assert.ErrorIs(t, err, roomgw.ErrUnavailable)
	assert.Zero(t, store.creates)
}

func TestCreateBookingDuplicate(t *testing.T) {
	store := newFakeStore()
	store.createErr = repository.ErrDuplicate
	gw := &fakeGateway{available: []time.Time{date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3)}}
	svc := newSvc(store, gw, &fakePublisher{})

	_, err := svc.Create(context.Background(), createInput(), guest, "tok")
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Empty(t, gw.retracts, "no remote mutation when persistence fails")
}

func TestCreateBookingRetractionFailureRollsBack(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{
		available:  []time.Time{date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3)},
		retractErr: &roomgw.RejectedError{Status: 409, Body: "gone"},
	}
	svc := newSvc(store, gw, &fakePublisher{})

	_, err := svc.Create(context.Background(), createInput(), guest, "tok")

	var retraction *service.RetractionError
	require.ErrorAs(t, err, &retraction)
	assert.Empty(t, store.bookings, "compensation must delete the booking row")
	assert.Equal(t, 1, store.creates)
	require.Len(t, store.deletes, 1)
}

func TestCreateBookingPublishFailureStillSucceeds(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{available: []time.Time{date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3)}}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newSvc(store, gw, pub)

	b, err := svc.Create(context.Background(), createInput(), guest, "tok")
	require.NoError(t, err, "notification failure never fails the booking")
	assert.Len(t, store.bookings, 1)
	require.NotNil(t, b)
}

func TestCreateBookingForOtherGuestRequiresAdmin(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{available: []time.Time{date(2024, 1, 1), date(2024, 1, 2), date(2024, 1, 3)}}
	svc := newSvc(store, gw, &fakePublisher{})

	in := createInput()
	in.GuestID = "someone-else"
	_, err := svc.Create(context.Background(), in, guest, "tok")
	assert.ErrorIs(t, err, service.ErrForbidden)

	admin := guest
	admin.Admin = true
	_, err = svc.Create(context.Background(), in, admin, "tok")
	assert.NoError(t, err)
}

func seedBooking(store *fakeStore, in, out time.Time) {
	store.bookings["bk-9"] = domain.Booking{
		ID: "bk-9", RoomID: 4, GuestID: "u-7",
		CheckInDate: in, CheckOutDate: out,
	}
}

func TestCancelBookingRestoresOnlyFutureDates(t *testing.T) {
	store := newFakeStore()
	seedBooking(store, date(2024, 1, 1), date(2024, 1, 5))
	gw := &fakeGateway{}
	svc := newSvc(store, gw, &fakePublisher{}).
		WithClock(func() time.Time { return time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC) })

	err := svc.Cancel(context.Background(), "bk-9", guest, "tok")
	require.NoError(t, err)
	assert.Empty(t, store.bookings)
	// "today" itself is still restorable inventory
	assert.Equal(t, []time.Time{date(2024, 1, 3), date(2024, 1, 4), date(2024, 1, 5)}, gw.restores)
}

func TestCancelBookingAllPastRestoresNothing(t *testing.T) {
	store := newFakeStore()
	seedBooking(store, date(2024, 1, 1), date(2024, 1, 5))
	gw := &fakeGateway{}
	svc := newSvc(store, gw, &fakePublisher{}).
		WithClock(func() time.Time { return date(2024, 6, 1) })

	err := svc.Cancel(context.Background(), "bk-9", guest, "tok")
	require.NoError(t, err)
	assert.Empty(t, gw.restores)
}

func TestCancelBookingNotFound(t *testing.T) {
	svc := newSvc(newFakeStore(), &fakeGateway{}, &fakePublisher{})
	err := svc.Cancel(context.Background(), "missing", guest, "tok")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCancelBookingForbiddenForStranger(t *testing.T) {
	store := newFakeStore()
	seedBooking(store, date(2024, 1, 1), date(2024, 1, 2))
	svc := newSvc(store, &fakeGateway{}, &fakePublisher{})

	err := svc.Cancel(context.Background(), "bk-9", service.Guest{Sub: "intruder"}, "tok")
	assert.ErrorIs(t, err, service.ErrForbidden)
	assert.Len(t, store.bookings, 1, "booking must survive a forbidden cancel")
}

func TestCancelBookingRestorationFailureIsDegradedSuccess(t *testing.T) {
	store := newFakeStore()
	seedBooking(store, date(2024, 1, 1), date(2024, 1, 5))
	gw := &fakeGateway{restoreErr: map[string]error{
		"2024-01-04": roomgw.ErrUnavailable,
	}}
	svc := newSvc(store, gw, &fakePublisher{}).
		WithClock(func() time.Time { return date(2024, 1, 3) })

	err := svc.Cancel(context.Background(), "bk-9", guest, "tok")

	var restoration *service.RestorationError
	require.ErrorAs(t, err, &restoration)
	assert.Equal(t, "bk-9", restoration.BookingID)
	assert.Equal(t, []time.Time{date(2024, 1, 4)}, restoration.Failed)
	assert.Empty(t, store.bookings, "deletion is never rolled back")
	assert.Equal(t, []time.Time{date(2024, 1, 3), date(2024, 1, 5)}, gw.restores,
		"remaining dates are still attempted")
}
