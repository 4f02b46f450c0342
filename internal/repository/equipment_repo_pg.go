package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/gearbooking/internal/database"
	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/google/uuid"
)

const (
	NamespaceEquipment = "equipment"

	equipmentColumns = `id, lender_id, name, daily_rate_cents, security_deposit_cents, min_rental_days, max_rental_days, status, total_bookings, total_revenue_cents, view_count, created_at, updated_at`
)

type EquipmentRepository interface {
	Create(ctx context.Context, q database.Querier, eq *domain.Equipment) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Equipment, error)
	// Lock reads the row with SELECT ... FOR UPDATE; q must be a transaction.
	Lock(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Equipment, error)
	RecordCompletion(ctx context.Context, q database.Querier, id uuid.UUID, revenueCents int64) error
}

type PGEquipmentRepository struct {
	cacheTTL time.Duration
}

// NewEquipmentRepository returns the Postgres repository. cacheTTL of zero
// uses the executor default.
func NewEquipmentRepository(cacheTTL time.Duration) EquipmentRepository {
	return &PGEquipmentRepository{cacheTTL: cacheTTL}
}

func (r *PGEquipmentRepository) Create(ctx context.Context, q database.Querier, eq *domain.Equipment) error {
	if eq.ID == uuid.Nil {
		eq.ID = uuid.New()
	}
	if eq.Status == "" {
		eq.Status = domain.EquipmentStatusActive
	}
	now := time.Now().UTC()
	eq.CreatedAt, eq.UpdatedAt = now, now

	_, err := q.Exec(ctx, database.Statement{
		SQL: `INSERT INTO equipment (` + equipmentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		Args: []any{eq.ID, eq.LenderID, eq.Name, eq.DailyRateCents, eq.SecurityDepositCents,
			eq.MinRentalDays, eq.MaxRentalDays, string(eq.Status), eq.TotalBookings,
			eq.TotalRevenueCents, eq.ViewCount, eq.CreatedAt, eq.UpdatedAt},
		Namespace: NamespaceEquipment,
	})
	if err != nil {
		return fmt.Errorf("insert equipment: %w", err)
	}
	return nil
}

func (r *PGEquipmentRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Equipment, error) {
	eq, err := database.Read(ctx, q, database.Statement{
		SQL:       `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`,
		Args:      []any{id},
		Namespace: NamespaceEquipment,
		Cache:     true,
		CacheKey:  "id:" + id.String(),
		CacheTTL:  r.cacheTTL,
	}, scanOneEquipment)
	if err != nil {
		return nil, err
	}
	return eq, nil
}

func (r *PGEquipmentRepository) Lock(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Equipment, error) {
	return database.Read(ctx, q, database.Statement{
		SQL:       `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 FOR UPDATE`,
		Args:      []any{id},
		Namespace: NamespaceEquipment,
	}, scanOneEquipment)
}

func (r *PGEquipmentRepository) RecordCompletion(ctx context.Context, q database.Querier, id uuid.UUID, revenueCents int64) error {
	n, err := q.Exec(ctx, database.Statement{
		SQL: `UPDATE equipment
			SET total_bookings = total_bookings + 1,
			    total_revenue_cents = total_revenue_cents + $2,
			    updated_at = now()
			WHERE id = $1`,
		Args:      []any{id, revenueCents},
		Namespace: NamespaceEquipment,
	})
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	if n == 0 {
		return domain.ErrEquipmentNotFound
	}
	return nil
}

func scanEquipment(rows database.Rows, eq *domain.Equipment) error {
	var status string
	if err := rows.Scan(&eq.ID, &eq.LenderID, &eq.Name, &eq.DailyRateCents, &eq.SecurityDepositCents,
		&eq.MinRentalDays, &eq.MaxRentalDays, &status, &eq.TotalBookings, &eq.TotalRevenueCents,
		&eq.ViewCount, &eq.CreatedAt, &eq.UpdatedAt); err != nil {
		return err
	}
	eq.Status = domain.EquipmentStatus(status)
	return nil
}

func scanOneEquipment(rows database.Rows) (*domain.Equipment, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrEquipmentNotFound
	}
	var eq domain.Equipment
	if err := scanEquipment(rows, &eq); err != nil {
		return nil, err
	}
	return &eq, nil
}

var _ EquipmentRepository = (*PGEquipmentRepository)(nil)
