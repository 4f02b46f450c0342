package domain

import (
	"time"

	"github.com/google/uuid"
)

type EquipmentStatus string

const (
	EquipmentStatusActive      EquipmentStatus = "active"
	EquipmentStatusRented      EquipmentStatus = "rented"
	EquipmentStatusMaintenance EquipmentStatus = "maintenance"
	EquipmentStatusInactive    EquipmentStatus = "inactive"
)

type Equipment struct {
	ID                   uuid.UUID       `json:"id"`
	LenderID             uuid.UUID       `json:"lender_id"`
	Name                 string          `json:"name"`
	DailyRateCents       int64           `json:"daily_rate_cents"`
	SecurityDepositCents int64           `json:"security_deposit_cents"`
	MinRentalDays        int             `json:"min_rental_days"`
	MaxRentalDays        int             `json:"max_rental_days"`
	Status               EquipmentStatus `json:"status"`
	TotalBookings        int64           `json:"total_bookings"`
	TotalRevenueCents    int64           `json:"total_revenue_cents"`
	ViewCount            int64           `json:"view_count"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Bookable reports whether new bookings may be placed on the item.
func (e *Equipment) Bookable() bool {
	return e.Status == EquipmentStatusActive || e.Status == EquipmentStatusRented
}
