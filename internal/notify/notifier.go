// Package notify turns booking events into messages for renters and lenders.
// Delivery is owned by an external service; this one only logs what would
// be sent.
package notify

import (
	"context"
	"fmt"

	"github.com/Domenick1991/gearbooking/internal/kafka"
	"go.uber.org/zap"
)

type Notifier struct {
	log *zap.Logger
}

func NewNotifier(log *zap.Logger) *Notifier {
	return &Notifier{log: log.Named("notifier")}
}

func (n *Notifier) Send(ctx context.Context, event kafka.BookingEvent) error {
	subject, err := Subject(event)
	if err != nil {
		return err
	}
	n.log.Info("notification",
		zap.String("subject", subject),
		zap.String("reference", event.Reference),
		zap.String("renter_id", event.RenterID.String()),
		zap.String("lender_id", event.LenderID.String()),
		zap.String("status", event.Status),
	)
	return nil
}

// Subject renders the headline for an event.
func Subject(event kafka.BookingEvent) (string, error) {
	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("Booking %s requested for %s to %s", event.Reference, event.StartDate, event.EndDate), nil
	case kafka.EventBookingStatusChanged:
		return fmt.Sprintf("Booking %s is now %s", event.Reference, event.Status), nil
	case kafka.EventBookingCancelled:
		return fmt.Sprintf("Booking %s was cancelled", event.Reference), nil
	}
	return "", fmt.Errorf("unknown event type %q", event.Type)
}
