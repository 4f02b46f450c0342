package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/gearbooking/internal/database"
	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/Domenick1991/gearbooking/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// memWorld is an in-memory store. Transactions are serialized and rolled
// back by restoring a snapshot, which stands in for row locks.
type memWorld struct {
	txMu sync.Mutex
	mu   sync.Mutex

	equipment map[uuid.UUID]domain.Equipment
	bookings  map[uuid.UUID]domain.Booking
	history   []domain.StatusChange

	commits   int
	rollbacks int

	// referenceClashes makes that many booking inserts fail as duplicates.
	referenceClashes int
}

type memSnapshot struct {
	equipment map[uuid.UUID]domain.Equipment
	bookings  map[uuid.UUID]domain.Booking
	history   []domain.StatusChange
}

func newMemWorld() *memWorld {
	return &memWorld{
		equipment: make(map[uuid.UUID]domain.Equipment),
		bookings:  make(map[uuid.UUID]domain.Booking),
	}
}

func (w *memWorld) Query(context.Context, database.Statement, func(database.Rows) error) error {
	return errors.New("memWorld: raw queries not supported")
}

func (w *memWorld) Exec(context.Context, database.Statement) (int64, error) {
	return 0, errors.New("memWorld: raw statements not supported")
}

func (w *memWorld) Transaction(_ context.Context, fn func(q database.Querier) error) error {
	w.txMu.Lock()
	defer w.txMu.Unlock()

	snap := w.snapshot()
	if err := fn(w); err != nil {
		w.restore(snap)
		w.mu.Lock()
		w.rollbacks++
		w.mu.Unlock()
		return err
	}
	w.mu.Lock()
	w.commits++
	w.mu.Unlock()
	return nil
}

func (w *memWorld) snapshot() memSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := memSnapshot{
		equipment: make(map[uuid.UUID]domain.Equipment, len(w.equipment)),
		bookings:  make(map[uuid.UUID]domain.Booking, len(w.bookings)),
		history:   append([]domain.StatusChange(nil), w.history...),
	}
	for k, v := range w.equipment {
		s.equipment[k] = v
	}
	for k, v := range w.bookings {
		s.bookings[k] = v
	}
	return s
}

func (w *memWorld) restore(s memSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.equipment, w.bookings, w.history = s.equipment, s.bookings, s.history
}

func (w *memWorld) booking(id uuid.UUID) domain.Booking {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bookings[id]
}

func (w *memWorld) historyOf(id uuid.UUID) []domain.StatusChange {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []domain.StatusChange
	for _, c := range w.history {
		if c.BookingID == id {
			out = append(out, c)
		}
	}
	return out
}

type memEquipment struct{ w *memWorld }

func (r memEquipment) Create(_ context.Context, _ database.Querier, eq *domain.Equipment) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	r.w.equipment[eq.ID] = *eq
	return nil
}

func (r memEquipment) GetByID(_ context.Context, _ database.Querier, id uuid.UUID) (*domain.Equipment, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	eq, ok := r.w.equipment[id]
	if !ok {
		return nil, domain.ErrEquipmentNotFound
	}
	return &eq, nil
}

func (r memEquipment) Lock(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Equipment, error) {
	return r.GetByID(ctx, q, id)
}

func (r memEquipment) RecordCompletion(_ context.Context, _ database.Querier, id uuid.UUID, revenueCents int64) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	eq, ok := r.w.equipment[id]
	if !ok {
		return domain.ErrEquipmentNotFound
	}
	eq.TotalBookings++
	eq.TotalRevenueCents += revenueCents
	r.w.equipment[id] = eq
	return nil
}

type memBookings struct{ w *memWorld }

func (r memBookings) Create(_ context.Context, _ database.Querier, b *domain.Booking) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	if r.w.referenceClashes > 0 {
		r.w.referenceClashes--
		return &pgconn.PgError{Code: "23505", ConstraintName: "bookings_reference_key"}
	}
	r.w.bookings[b.ID] = *b
	return nil
}

func (r memBookings) GetByID(_ context.Context, _ database.Querier, id uuid.UUID) (*domain.Booking, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	b, ok := r.w.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return &b, nil
}

func (r memBookings) Lock(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Booking, error) {
	return r.GetByID(ctx, q, id)
}

func (r memBookings) UpdateStatus(_ context.Context, _ database.Querier, b *domain.Booking) error {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	if _, ok := r.w.bookings[b.ID]; !ok {
		return domain.ErrBookingNotFound
	}
	r.w.bookings[b.ID] = *b
	return nil
}

func (r memBookings) HasOverlap(_ context.Context, _ database.Querier, equipmentID uuid.UUID, start, end time.Time, statuses []domain.BookingStatus, exclude uuid.UUID) (bool, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	for _, b := range r.w.bookings {
		if b.EquipmentID != equipmentID || b.ID == exclude {
			continue
		}
		for _, s := range statuses {
			if b.Status == s && domain.Overlaps(b.StartDate, b.EndDate, start, end) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r memBookings) List(_ context.Context, _ database.Querier, opts repository.ListOptions) ([]domain.Booking, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	out := make([]domain.Booking, 0)
	for _, b := range r.w.bookings {
		if opts.Status != "" && b.Status != opts.Status {
			continue
		}
		if opts.RenterID != uuid.Nil && b.RenterID != opts.RenterID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r memBookings) StartingBy(_ context.Context, _ database.Querier, status domain.BookingStatus, day time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	var ids []uuid.UUID
	for _, b := range r.w.bookings {
		if b.Status == status && !b.StartDate.After(domain.Day(day)) && b.ID.String() > after.String() {
			ids = append(ids, b.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type memHistory struct {
	w *memWorld
	// failOn makes Append fail for changes into this status.
	failOn domain.BookingStatus
}

func (r *memHistory) Append(_ context.Context, _ database.Querier, change *domain.StatusChange) error {
	if r.failOn != "" && change.ToStatus == r.failOn {
		return errors.New("history insert failed")
	}
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	change.ID = int64(len(r.w.history) + 1)
	r.w.history = append(r.w.history, *change)
	return nil
}

func (r *memHistory) ListByBooking(_ context.Context, _ database.Querier, bookingID uuid.UUID) ([]domain.StatusChange, error) {
	return r.w.historyOf(bookingID), nil
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var (
	_ Store                          = (*memWorld)(nil)
	_ repository.EquipmentRepository = memEquipment{}
	_ repository.BookingRepository   = memBookings{}
	_ repository.HistoryRepository   = (*memHistory)(nil)
)
