package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/gearbooking/internal/database"
	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/google/uuid"
)

const NamespaceHistory = "booking_status_history"

// HistoryRepository is append-only: rows are never updated or deleted.
type HistoryRepository interface {
	Append(ctx context.Context, q database.Querier, change *domain.StatusChange) error
	ListByBooking(ctx context.Context, q database.Querier, bookingID uuid.UUID) ([]domain.StatusChange, error)
}

type PGHistoryRepository struct {
	cacheTTL time.Duration
}

func NewHistoryRepository(cacheTTL time.Duration) HistoryRepository {
	return &PGHistoryRepository{cacheTTL: cacheTTL}
}

func (r *PGHistoryRepository) Append(ctx context.Context, q database.Querier, change *domain.StatusChange) error {
	err := q.Query(ctx, database.Statement{
		SQL: `INSERT INTO booking_status_history (booking_id, from_status, to_status, changed_by, reason, changed_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
		Args: []any{change.BookingID, string(change.FromStatus), string(change.ToStatus),
			change.ChangedBy, change.Reason, change.ChangedAt},
		Namespace:   NamespaceHistory,
		Invalidates: []string{NamespaceHistory},
	}, func(rows database.Rows) error {
		if rows.Next() {
			return rows.Scan(&change.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

func (r *PGHistoryRepository) ListByBooking(ctx context.Context, q database.Querier, bookingID uuid.UUID) ([]domain.StatusChange, error) {
	return database.Read(ctx, q, database.Statement{
		SQL: `SELECT id, booking_id, from_status, to_status, changed_by, reason, changed_at
			FROM booking_status_history
			WHERE booking_id = $1
			ORDER BY id`,
		Args:      []any{bookingID},
		Namespace: NamespaceHistory,
		Cache:     true,
		CacheKey:  "booking:" + bookingID.String(),
		CacheTTL:  r.cacheTTL,
	}, scanHistory)
}

func scanHistory(rows database.Rows) ([]domain.StatusChange, error) {
	changes := make([]domain.StatusChange, 0)
	for rows.Next() {
		var (
			c        domain.StatusChange
			from, to string
		)
		if err := rows.Scan(&c.ID, &c.BookingID, &from, &to, &c.ChangedBy, &c.Reason, &c.ChangedAt); err != nil {
			return nil, err
		}
		c.FromStatus, c.ToStatus = domain.BookingStatus(from), domain.BookingStatus(to)
		changes = append(changes, c)
	}
	return changes, nil
}

var _ HistoryRepository = (*PGHistoryRepository)(nil)
