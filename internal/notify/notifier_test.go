package notify

import (
	"context"
	"testing"

	"github.com/Domenick1991/gearbooking/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSubject(t *testing.T) {
	s, err := Subject(kafka.BookingEvent{Type: kafka.EventBookingStatusChanged, Reference: "RB-1", Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, "Booking RB-1 is now confirmed", s)

	_, err = Subject(kafka.BookingEvent{Type: "bogus"})
	assert.Error(t, err)
}

func TestNotifier_SendLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewNotifier(zap.New(core))

	err := n.Send(context.Background(), kafka.BookingEvent{Type: kafka.EventBookingCancelled, Reference: "RB-2"})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Booking RB-2 was cancelled", logs.All()[0].ContextMap()["subject"])
}
