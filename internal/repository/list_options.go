package repository

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type SortField string

const (
	SortByCreatedAt   SortField = "created_at"
	SortByStartDate   SortField = "start_date"
	SortByTotalAmount SortField = "total_amount"
)

var sortColumns = map[SortField]string{
	SortByCreatedAt:   "created_at",
	SortByStartDate:   "start_date",
	SortByTotalAmount: "total_amount_cents",
}

// ParseSortField accepts the empty string as created_at.
func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return SortByCreatedAt, nil
	}
	f := SortField(s)
	if _, ok := sortColumns[f]; !ok {
		return "", fmt.Errorf("unknown sort field %q", s)
	}
	return f, nil
}

// ListOptions filters and orders a booking listing. Zero-valued filters are
// not applied.
type ListOptions struct {
	RenterID    uuid.UUID
	LenderID    uuid.UUID
	EquipmentID uuid.UUID
	Status      domain.BookingStatus

	SortBy     SortField
	Descending bool
	Limit      int
	Offset     int
}

func (o ListOptions) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if o.RenterID != uuid.Nil {
		add("renter_id = $%d", o.RenterID)
	}
	if o.LenderID != uuid.Nil {
		add("lender_id = $%d", o.LenderID)
	}
	if o.EquipmentID != uuid.Nil {
		add("equipment_id = $%d", o.EquipmentID)
	}
	if o.Status != "" {
		add("status = $%d", string(o.Status))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (o ListOptions) orderBy() string {
	col, ok := sortColumns[o.SortBy]
	if !ok {
		col = sortColumns[SortByCreatedAt]
	}
	dir := "ASC"
	if o.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

// Normalized returns o with the page size and offset the query will use.
func (o ListOptions) Normalized() ListOptions {
	o.Limit, o.Offset = o.limit(), o.offset()
	return o
}

func (o ListOptions) limit() int {
	switch {
	case o.Limit <= 0:
		return defaultListLimit
	case o.Limit > maxListLimit:
		return maxListLimit
	}
	return o.Limit
}

func (o ListOptions) offset() int {
	if o.Offset < 0 {
		return 0
	}
	return o.Offset
}
