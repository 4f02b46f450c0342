package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusDisputed  BookingStatus = "disputed"
)

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusRefundPending PaymentStatus = "refund_pending"
	PaymentStatusRefunded      PaymentStatus = "refunded"
)

type PickupMethod string

const (
	PickupMethodPickup   PickupMethod = "pickup"
	PickupMethodDelivery PickupMethod = "delivery"
)

// Booking is a reservation of one equipment item for an inclusive range of
// calendar days. Amounts are in cents and snapshotted at creation.
type Booking struct {
	ID                   uuid.UUID     `json:"id"`
	Reference            string        `json:"reference"`
	RenterID             uuid.UUID     `json:"renter_id"`
	LenderID             uuid.UUID     `json:"lender_id"`
	EquipmentID          uuid.UUID     `json:"equipment_id"`
	StartDate            time.Time     `json:"start_date"`
	EndDate              time.Time     `json:"end_date"`
	TotalDays            int           `json:"total_days"`
	DailyRateCents       int64         `json:"daily_rate_cents"`
	SubtotalCents        int64         `json:"subtotal_cents"`
	ServiceFeeCents      int64         `json:"service_fee_cents"`
	InsuranceFeeCents    int64         `json:"insurance_fee_cents"`
	SecurityDepositCents int64         `json:"security_deposit_cents"`
	TotalAmountCents     int64         `json:"total_amount_cents"`
	Status               BookingStatus `json:"status"`
	PaymentStatus        PaymentStatus `json:"payment_status"`
	PickupMethod         PickupMethod  `json:"pickup_method"`
	SpecialInstructions  string        `json:"special_instructions,omitempty"`
	RefundAmountCents    int64         `json:"refund_amount_cents"`
	CancellationReason   string        `json:"cancellation_reason,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
	ConfirmedAt          *time.Time    `json:"confirmed_at,omitempty"`
	CompletedAt          *time.Time    `json:"completed_at,omitempty"`
	CancelledAt          *time.Time    `json:"cancelled_at,omitempty"`
}

// ApplyQuote copies the financial terms of q onto the booking.
func (b *Booking) ApplyQuote(q Quote) {
	b.DailyRateCents = q.DailyRateCents
	b.SubtotalCents = q.SubtotalCents
	b.ServiceFeeCents = q.ServiceFeeCents
	b.InsuranceFeeCents = q.InsuranceFeeCents
	b.SecurityDepositCents = q.DepositCents
	b.TotalAmountCents = q.TotalCents
}

// Quote is the output of the pricing calculator.
type Quote struct {
	DailyRateCents    int64 `json:"daily_rate_cents"`
	TotalDays         int   `json:"total_days"`
	SubtotalCents     int64 `json:"subtotal_cents"`
	ServiceFeeCents   int64 `json:"service_fee_cents"`
	InsuranceFeeCents int64 `json:"insurance_fee_cents"`
	DepositCents      int64 `json:"deposit_cents"`
	TotalCents        int64 `json:"total_cents"`
}

// StatusChange is one row of the append-only booking status history.
type StatusChange struct {
	ID         int64         `json:"id"`
	BookingID  uuid.UUID     `json:"booking_id"`
	FromStatus BookingStatus `json:"from_status"`
	ToStatus   BookingStatus `json:"to_status"`
	ChangedBy  uuid.UUID     `json:"changed_by"`
	Reason     string        `json:"reason,omitempty"`
	ChangedAt  time.Time     `json:"changed_at"`
}
