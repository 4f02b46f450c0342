// Package refund resolves how much of a booking is returned on cancellation.
package refund

import (
	"time"

	"github.com/Domenick1991/gearbooking/internal/domain"
)

const (
	FullRefundAfterDays = 7
	HalfRefundAfterDays = 1
)

type Tier string

const (
	TierFull        Tier = "full"
	TierHalf        Tier = "half"
	TierDepositOnly Tier = "deposit_only"
)

// Decision is the outcome of resolving a cancellation.
type Decision struct {
	Tier           Tier  `json:"tier"`
	DaysUntilStart int   `json:"days_until_start"`
	AmountCents    int64 `json:"amount_cents"`
}

type Policy struct{}

// Resolve applies the cancellation tiers to b as of now. Days are counted
// in UTC calendar days from today to the start date.
func (Policy) Resolve(b *domain.Booking, now time.Time) Decision {
	days := domain.DaysBetween(now, b.StartDate)

	switch {
	case days > FullRefundAfterDays:
		return Decision{Tier: TierFull, DaysUntilStart: days, AmountCents: b.TotalAmountCents}
	case days > HalfRefundAfterDays:
		return Decision{Tier: TierHalf, DaysUntilStart: days, AmountCents: (b.TotalAmountCents + 1) / 2}
	default:
		return Decision{Tier: TierDepositOnly, DaysUntilStart: days, AmountCents: b.SecurityDepositCents}
	}
}
