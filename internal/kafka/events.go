package kafka

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventBookingCreated       = "booking_created"
	EventBookingStatusChanged = "booking_status_changed"
	EventBookingCancelled     = "booking_cancelled"
	EventRefundRequested      = "refund_requested"
)

type BookingEvent struct {
	Type             string    `json:"type"`
	BookingID        uuid.UUID `json:"booking_id"`
	Reference        string    `json:"reference"`
	EquipmentID      uuid.UUID `json:"equipment_id"`
	RenterID         uuid.UUID `json:"renter_id"`
	LenderID         uuid.UUID `json:"lender_id"`
	FromStatus       string    `json:"from_status,omitempty"`
	Status           string    `json:"status"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	ChangedBy        uuid.UUID `json:"changed_by"`
	Reason           string    `json:"reason,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// RefundRequested asks the payment collaborator to return money to the renter.
type RefundRequested struct {
	Type        string    `json:"type"`
	BookingID   uuid.UUID `json:"booking_id"`
	Reference   string    `json:"reference"`
	RenterID    uuid.UUID `json:"renter_id"`
	AmountCents int64     `json:"amount_cents"`
	Tier        string    `json:"tier"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
