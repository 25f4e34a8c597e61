package worker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/you/hostel-booking/pkg/mq"
	"github.com/you/hostel-booking/services/notification-service/internal/events"
	"github.com/you/hostel-booking/services/notification-service/internal/notifier"
)

// Consumer drains the booking-information queue and hands each
// confirmation to the notifier. It is the only place in the system that
// consumes; publishing lives with the booking service.
type Consumer struct {
	cons     *mq.Consumer
	notifier notifier.Notifier
	log      *logrus.Logger
}

func NewConsumer(cons *mq.Consumer, n notifier.Notifier, log *logrus.Logger) *Consumer {
	return &Consumer{cons: cons, notifier: n, log: log}
}

// Run blocks until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.cons.Deliveries(ctx, "notification-service")
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := c.handleDelivery(d); err != nil {
				c.log.WithError(err).WithField("key", d.RoutingKey).
					Warn("handle delivery failed, requeueing")
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleDelivery(d amqp.Delivery) error {
	switch d.RoutingKey {
	case events.QueueBookingInformation:
		ev, err := events.Unmarshal[events.BookingInformation](d.Body)
		if err != nil {
			return err
		}
		subject := "Your hostel booking is confirmed"
		body := fmt.Sprintf(
			"Hello %s,\n\nYour booking %s for room %d is confirmed: check-in %s, check-out %s.\n\nSee you soon!",
			ev.Username, ev.Booking.ID, ev.Booking.RoomID,
			ev.Booking.CheckInDate, ev.Booking.CheckOutDate,
		)
		return c.notifier.Notify(ev.Email, subject, body)
	default:
		// unknown key: accept and drop, nothing will ever handle it
		c.log.WithField("key", d.RoutingKey).Info("skip unknown routing key")
		return nil
	}
}
