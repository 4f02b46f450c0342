package refund

import (
	"testing"
	"time"

	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPolicy_Resolve(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	booking := func(daysAhead int) *domain.Booking {
		return &domain.Booking{
			StartDate:            domain.Day(now).AddDate(0, 0, daysAhead),
			TotalAmountCents:     82400,
			SecurityDepositCents: 50000,
		}
	}

	tests := []struct {
		name string
		days int
		tier Tier
		want int64
	}{
		{"well ahead", 30, TierFull, 82400},
		{"eight days", 8, TierFull, 82400},
		{"seven days", 7, TierHalf, 41200},
		{"two days", 2, TierHalf, 41200},
		{"one day", 1, TierDepositOnly, 50000},
		{"same day", 0, TierDepositOnly, 50000},
		{"already started", -2, TierDepositOnly, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Policy{}.Resolve(booking(tt.days), now)
			assert.Equal(t, tt.tier, d.Tier)
			assert.Equal(t, tt.want, d.AmountCents)
			assert.Equal(t, tt.days, d.DaysUntilStart)
		})
	}
}

func TestPolicy_HalfRoundsUp(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	b := &domain.Booking{StartDate: now.AddDate(0, 0, 3), TotalAmountCents: 1001}

	assert.Equal(t, int64(501), Policy{}.Resolve(b, now).AmountCents)
}
