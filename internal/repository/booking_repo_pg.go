package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/gearbooking/internal/database"
	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/google/uuid"
)

const (
	NamespaceBookings = "bookings"

	bookingColumns = `id, reference, renter_id, lender_id, equipment_id, start_date, end_date, total_days,
		daily_rate_cents, subtotal_cents, service_fee_cents, insurance_fee_cents, security_deposit_cents,
		total_amount_cents, status, payment_status, pickup_method, special_instructions, refund_amount_cents,
		cancellation_reason, created_at, updated_at, confirmed_at, completed_at, cancelled_at`
)

type BookingRepository interface {
	Create(ctx context.Context, q database.Querier, b *domain.Booking) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Booking, error)
	// Lock reads the row with SELECT ... FOR UPDATE; q must be a transaction.
	Lock(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, q database.Querier, b *domain.Booking) error
	// HasOverlap reports whether a booking of the equipment in one of the
	// given statuses overlaps [start, end]. exclude is skipped; uuid.Nil
	// excludes nothing.
	HasOverlap(ctx context.Context, q database.Querier, equipmentID uuid.UUID, start, end time.Time, statuses []domain.BookingStatus, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, q database.Querier, opts ListOptions) ([]domain.Booking, error)
	// StartingBy returns up to limit ids of bookings in status whose start
	// date is on or before day, in id order and strictly after the after
	// cursor. Pass uuid.Nil to start from the beginning.
	StartingBy(ctx context.Context, q database.Querier, status domain.BookingStatus, day time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type PGBookingRepository struct {
	cacheTTL time.Duration
}

func NewBookingRepository(cacheTTL time.Duration) BookingRepository {
	return &PGBookingRepository{cacheTTL: cacheTTL}
}

func (r *PGBookingRepository) Create(ctx context.Context, q database.Querier, b *domain.Booking) error {
	_, err := q.Exec(ctx, database.Statement{
		SQL: `INSERT INTO bookings (` + bookingColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		Args: []any{b.ID, b.Reference, b.RenterID, b.LenderID, b.EquipmentID, b.StartDate, b.EndDate, b.TotalDays,
			b.DailyRateCents, b.SubtotalCents, b.ServiceFeeCents, b.InsuranceFeeCents, b.SecurityDepositCents,
			b.TotalAmountCents, string(b.Status), string(b.PaymentStatus), string(b.PickupMethod), b.SpecialInstructions,
			b.RefundAmountCents, b.CancellationReason, b.CreatedAt, b.UpdatedAt, b.ConfirmedAt, b.CompletedAt, b.CancelledAt},
		Namespace: NamespaceBookings,
	})
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Booking, error) {
	return database.Read(ctx, q, database.Statement{
		SQL:       `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`,
		Args:      []any{id},
		Namespace: NamespaceBookings,
		Cache:     true,
		CacheKey:  "id:" + id.String(),
		CacheTTL:  r.cacheTTL,
	}, scanOneBooking)
}

func (r *PGBookingRepository) Lock(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Booking, error) {
	return database.Read(ctx, q, database.Statement{
		SQL:       `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`,
		Args:      []any{id},
		Namespace: NamespaceBookings,
	}, scanOneBooking)
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, q database.Querier, b *domain.Booking) error {
	n, err := q.Exec(ctx, database.Statement{
		SQL: `UPDATE bookings
			SET status = $2, payment_status = $3, refund_amount_cents = $4, cancellation_reason = $5,
			    updated_at = $6, confirmed_at = $7, completed_at = $8, cancelled_at = $9
			WHERE id = $1`,
		Args: []any{b.ID, string(b.Status), string(b.PaymentStatus), b.RefundAmountCents, b.CancellationReason,
			b.UpdatedAt, b.ConfirmedAt, b.CompletedAt, b.CancelledAt},
		Namespace: NamespaceBookings,
	})
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if n == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

func (r *PGBookingRepository) HasOverlap(ctx context.Context, q database.Querier, equipmentID uuid.UUID, start, end time.Time, statuses []domain.BookingStatus, exclude uuid.UUID) (bool, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	start, end = domain.Day(start), domain.Day(end)

	return database.Read(ctx, q, database.Statement{
		SQL: `SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE equipment_id = $1
			  AND status = ANY($2)
			  AND start_date <= $3
			  AND end_date >= $4
			  AND id <> $5)`,
		Args:      []any{equipmentID, names, end, start, exclude},
		Namespace: NamespaceBookings,
		Cache:     true,
		CacheKey: fmt.Sprintf("overlap:%s:%s:%s:%s:%s", equipmentID, start.Format(domain.DateLayout),
			end.Format(domain.DateLayout), strings.Join(names, ","), exclude),
		CacheTTL: r.cacheTTL,
	}, scanBool)
}

func (r *PGBookingRepository) List(ctx context.Context, q database.Querier, opts ListOptions) ([]domain.Booking, error) {
	where, args := opts.where()
	sql := `SELECT ` + bookingColumns + ` FROM bookings` + where + opts.orderBy() +
		fmt.Sprintf(" LIMIT %d OFFSET %d", opts.limit(), opts.offset())

	return database.Read(ctx, q, database.Statement{
		SQL:       sql,
		Args:      args,
		Namespace: NamespaceBookings,
		Cache:     true,
		CacheTTL:  r.cacheTTL,
	}, scanBookings)
}

func (r *PGBookingRepository) StartingBy(ctx context.Context, q database.Querier, status domain.BookingStatus, day time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return database.Read(ctx, q, database.Statement{
		SQL: `SELECT id FROM bookings
			WHERE status = $1 AND start_date <= $2 AND id > $3
			ORDER BY id
			LIMIT $4`,
		Args:      []any{string(status), domain.Day(day), after, limit},
		Namespace: NamespaceBookings,
	}, scanIDs)
}

func scanBooking(rows database.Rows, b *domain.Booking) error {
	var status, payment, pickup string
	if err := rows.Scan(&b.ID, &b.Reference, &b.RenterID, &b.LenderID, &b.EquipmentID, &b.StartDate, &b.EndDate,
		&b.TotalDays, &b.DailyRateCents, &b.SubtotalCents, &b.ServiceFeeCents, &b.InsuranceFeeCents,
		&b.SecurityDepositCents, &b.TotalAmountCents, &status, &payment, &pickup, &b.SpecialInstructions,
		&b.RefundAmountCents, &b.CancellationReason, &b.CreatedAt, &b.UpdatedAt, &b.ConfirmedAt,
		&b.CompletedAt, &b.CancelledAt); err != nil {
		return err
	}
	b.Status = domain.BookingStatus(status)
	b.PaymentStatus = domain.PaymentStatus(payment)
	b.PickupMethod = domain.PickupMethod(pickup)
	b.StartDate, b.EndDate = domain.Day(b.StartDate), domain.Day(b.EndDate)
	return nil
}

func scanOneBooking(rows database.Rows) (*domain.Booking, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrBookingNotFound
	}
	var b domain.Booking
	if err := scanBooking(rows, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBookings(rows database.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func scanBool(rows database.Rows) (bool, error) {
	var v bool
	if rows.Next() {
		if err := rows.Scan(&v); err != nil {
			return false, err
		}
	}
	return v, nil
}

func scanIDs(rows database.Rows) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
