// Package pricing computes the financial terms of a booking in cents.
package pricing

import (
	"fmt"

	"github.com/Domenick1991/gearbooking/internal/domain"
)

const (
	DefaultServiceFeeBps   int64 = 500
	DefaultInsuranceFeeBps int64 = 300

	bpsDenominator int64 = 10000
)

type Calculator struct {
	serviceFeeBps   int64
	insuranceFeeBps int64
}

// NewCalculator takes fee rates in basis points (500 = 5%).
func NewCalculator(serviceFeeBps, insuranceFeeBps int64) *Calculator {
	return &Calculator{serviceFeeBps: serviceFeeBps, insuranceFeeBps: insuranceFeeBps}
}

// Price quotes renting eq for totalDays days. Fees are rounded half-up to
// the cent; the deposit is taken from the equipment as it is now.
func (c *Calculator) Price(eq *domain.Equipment, totalDays int) (domain.Quote, error) {
	if totalDays < 1 || totalDays < eq.MinRentalDays || (eq.MaxRentalDays > 0 && totalDays > eq.MaxRentalDays) {
		return domain.Quote{}, fmt.Errorf("%w: %d days, allowed %d..%s",
			domain.ErrInvalidDuration, totalDays, eq.MinRentalDays, maxLabel(eq.MaxRentalDays))
	}

	subtotal := eq.DailyRateCents * int64(totalDays)
	serviceFee := Percent(subtotal, c.serviceFeeBps)
	insuranceFee := Percent(subtotal, c.insuranceFeeBps)

	return domain.Quote{
		DailyRateCents:    eq.DailyRateCents,
		TotalDays:         totalDays,
		SubtotalCents:     subtotal,
		ServiceFeeCents:   serviceFee,
		InsuranceFeeCents: insuranceFee,
		DepositCents:      eq.SecurityDepositCents,
		TotalCents:        subtotal + serviceFee + insuranceFee + eq.SecurityDepositCents,
	}, nil
}

// Percent returns amount*bps/10000 rounded half-up. amount must not be negative.
func Percent(amount, bps int64) int64 {
	return (amount*bps + bpsDenominator/2) / bpsDenominator
}

func maxLabel(n int) string {
	if n <= 0 {
		return "unbounded"
	}
	return fmt.Sprint(n)
}
