// Package availability decides whether equipment is free for a date range.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/gearbooking/internal/database"
	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/google/uuid"
)

// OverlapFinder is the storage query the checker runs.
type OverlapFinder interface {
	HasOverlap(ctx context.Context, q database.Querier, equipmentID uuid.UUID, start, end time.Time, statuses []domain.BookingStatus, exclude uuid.UUID) (bool, error)
}

type Checker struct {
	bookings OverlapFinder
	blocking []domain.BookingStatus
}

// NewChecker builds a checker. Confirmed and active bookings always block;
// holdPending makes pending bookings block too.
func NewChecker(bookings OverlapFinder, holdPending bool) *Checker {
	blocking := []domain.BookingStatus{domain.BookingStatusConfirmed, domain.BookingStatusActive}
	if holdPending {
		blocking = append(blocking, domain.BookingStatusPending)
	}
	return &Checker{bookings: bookings, blocking: blocking}
}

// IsAvailable reports whether no blocking booking overlaps [start, end].
// Run it on the transaction that holds the equipment lock to make the
// answer stick until commit.
func (c *Checker) IsAvailable(ctx context.Context, q database.Querier, equipmentID uuid.UUID, start, end time.Time) (bool, error) {
	return c.IsAvailableExcept(ctx, q, equipmentID, start, end, uuid.Nil)
}

// IsAvailableExcept ignores the booking with id exclude.
func (c *Checker) IsAvailableExcept(ctx context.Context, q database.Querier, equipmentID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	if domain.Day(end).Before(domain.Day(start)) {
		return false, fmt.Errorf("%w: end %s before start %s", domain.ErrInvalidDateRange,
			end.Format(domain.DateLayout), start.Format(domain.DateLayout))
	}
	busy, err := c.bookings.HasOverlap(ctx, q, equipmentID, start, end, c.blocking, exclude)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return !busy, nil
}
