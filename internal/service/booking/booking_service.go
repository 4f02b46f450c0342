package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/gearbooking/internal/database"
	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/Domenick1991/gearbooking/internal/kafka"
	"github.com/Domenick1991/gearbooking/internal/repository"
	"github.com/Domenick1991/gearbooking/internal/service/availability"
	"github.com/Domenick1991/gearbooking/internal/service/pricing"
	"github.com/Domenick1991/gearbooking/internal/service/refund"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	publishTimeout    = time.Second
	sweepBatchSize    = 100
	referenceAttempts = 3

	reasonCreated = "created"
	reasonStarted = "rental period started"
	reasonExpired = "expired"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, renterID uuid.UUID, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ListBookings(ctx context.Context, opts repository.ListOptions) ([]domain.Booking, error)
	TransitionBooking(ctx context.Context, id uuid.UUID, to domain.BookingStatus, changedBy uuid.UUID, reason string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id uuid.UUID, cancelledBy uuid.UUID, reason string) (*CancelResult, error)
	CheckAvailability(ctx context.Context, equipmentID uuid.UUID, start, end time.Time) (bool, error)
	GetBookingHistory(ctx context.Context, id uuid.UUID) ([]domain.StatusChange, error)
	ActivateDueBookings(ctx context.Context) (int, error)
	ExpireStalePending(ctx context.Context) (int, error)
}

// Store runs statements and transactions. *database.Executor implements it.
type Store interface {
	database.Querier
	Transaction(ctx context.Context, fn func(q database.Querier) error) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	EquipmentID         uuid.UUID           `json:"equipment_id"`
	StartDate           time.Time           `json:"start_date"`
	EndDate             time.Time           `json:"end_date"`
	PickupMethod        domain.PickupMethod `json:"pickup_method,omitempty"`
	SpecialInstructions string              `json:"special_instructions,omitempty"`
}

type CancelResult struct {
	Booking           *domain.Booking `json:"booking"`
	RefundAmountCents int64           `json:"refund_amount_cents"`
	RefundTier        refund.Tier     `json:"refund_tier"`
}

type BookingService struct {
	store     Store
	bookings  repository.BookingRepository
	equipment repository.EquipmentRepository
	history   repository.HistoryRepository
	checker   *availability.Checker
	pricing   *pricing.Calculator
	refunds   refund.Policy

	producer           Producer
	bookingTopic       string
	notificationsTopic string
	paymentsTopic      string

	systemUser uuid.UUID
	now        func() time.Time
	log        *zap.Logger
}

type BookingServiceOption func(*BookingService)

// WithProducer publishes booking events to bookingTopic.
func WithProducer(p Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = p
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithPaymentsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.paymentsTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

// WithSystemUser sets the actor recorded for scheduled transitions.
func WithSystemUser(id uuid.UUID) BookingServiceOption {
	return func(s *BookingService) {
		s.systemUser = id
	}
}

func NewBookingService(
	store Store,
	bookings repository.BookingRepository,
	equipment repository.EquipmentRepository,
	history repository.HistoryRepository,
	checker *availability.Checker,
	calculator *pricing.Calculator,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:     store,
		bookings:  bookings,
		equipment: equipment,
		history:   history,
		checker:   checker,
		pricing:   calculator,
		now:       time.Now,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	service.log = service.log.Named("booking")
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, renterID uuid.UUID, input CreateBookingInput) (*domain.Booking, error) {
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", domain.ErrInvalidDateRange)
	}
	start, end := domain.Day(input.StartDate), domain.Day(input.EndDate)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s", domain.ErrInvalidDateRange,
			end.Format(domain.DateLayout), start.Format(domain.DateLayout))
	}

	pickup := input.PickupMethod
	if pickup == "" {
		pickup = domain.PickupMethodPickup
	}
	if pickup != domain.PickupMethodPickup && pickup != domain.PickupMethodDelivery {
		return nil, fmt.Errorf("%w: unknown pickup method %q", domain.ErrInvalidInput, pickup)
	}

	var (
		booking *domain.Booking
		err     error
	)
	for attempt := 1; ; attempt++ {
		booking, err = s.createOnce(ctx, renterID, input.EquipmentID, start, end, pickup, input.SpecialInstructions)
		if err == nil || !database.IsUniqueViolation(err) || attempt == referenceAttempts {
			break
		}
		s.log.Warn("booking reference collision, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: could not allocate a booking reference: %v", domain.ErrTransactionAborted, err)
		}
		return nil, storeError(err)
	}

	s.log.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("equipment_id", booking.EquipmentID.String()),
		zap.Int64("total_amount_cents", booking.TotalAmountCents),
	)
	s.publishBooking(ctx, kafka.EventBookingCreated, booking, "", renterID, reasonCreated)
	return booking, nil
}

// createOnce runs one create transaction under a freshly drawn reference.
func (s *BookingService) createOnce(ctx context.Context, renterID, equipmentID uuid.UUID, start, end time.Time, pickup domain.PickupMethod, instructions string) (*domain.Booking, error) {
	reference, err := newReference()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	booking := &domain.Booking{
		ID:                  uuid.New(),
		Reference:           reference,
		RenterID:            renterID,
		EquipmentID:         equipmentID,
		StartDate:           start,
		EndDate:             end,
		TotalDays:           domain.TotalDays(start, end),
		Status:              domain.BookingStatusPending,
		PaymentStatus:       domain.PaymentStatusPending,
		PickupMethod:        pickup,
		SpecialInstructions: instructions,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err = s.store.Transaction(ctx, func(q database.Querier) error {
		eq, err := s.equipment.Lock(ctx, q, equipmentID)
		if err != nil {
			return err
		}
		if eq.Status == domain.EquipmentStatusInactive {
			return domain.ErrEquipmentNotFound
		}
		if !eq.Bookable() {
			return fmt.Errorf("%w: equipment is %s", domain.ErrEquipmentUnavailable, eq.Status)
		}
		if eq.LenderID == renterID {
			return domain.ErrSelfBookingForbidden
		}

		free, err := s.checker.IsAvailable(ctx, q, eq.ID, start, end)
		if err != nil {
			return err
		}
		if !free {
			return domain.ErrEquipmentUnavailable
		}

		quote, err := s.pricing.Price(eq, booking.TotalDays)
		if err != nil {
			return err
		}
		booking.LenderID = eq.LenderID
		booking.ApplyQuote(quote)

		if err := s.bookings.Create(ctx, q, booking); err != nil {
			return err
		}
		return s.history.Append(ctx, q, &domain.StatusChange{
			BookingID: booking.ID,
			ToStatus:  domain.BookingStatusPending,
			ChangedBy: renterID,
			Reason:    reasonCreated,
			ChangedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, s.store, id)
}

func (s *BookingService) ListBookings(ctx context.Context, opts repository.ListOptions) ([]domain.Booking, error) {
	return s.bookings.List(ctx, s.store, opts)
}

// TransitionBooking applies one state-machine move. Cancelling a pending or
// confirmed booking resolves the refund policy exactly like CancelBooking.
func (s *BookingService) TransitionBooking(ctx context.Context, id uuid.UUID, to domain.BookingStatus, changedBy uuid.UUID, reason string) (*domain.Booking, error) {
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, to)
	}
	result, err := s.changeStatus(ctx, id, to, changedBy, reason, cancelRefundable)
	if err != nil {
		return nil, err
	}
	return result.Booking, nil
}

// CancelBooking cancels a pending or confirmed booking and resolves the
// refund as of the service clock.
func (s *BookingService) CancelBooking(ctx context.Context, id uuid.UUID, cancelledBy uuid.UUID, reason string) (*CancelResult, error) {
	return s.changeStatus(ctx, id, domain.BookingStatusCancelled, cancelledBy, reason, cancelStrict)
}

// cancelRule says how a move to cancelled treats the refund policy.
type cancelRule int

const (
	// cancelWithoutRefund records no refund. Used by the expiry sweep.
	cancelWithoutRefund cancelRule = iota
	// cancelRefundable resolves the refund when leaving pending or confirmed.
	cancelRefundable
	// cancelStrict is cancelRefundable that also rejects every other source.
	cancelStrict
)

// changeStatus moves one booking in its own transaction and publishes after
// commit.
func (s *BookingService) changeStatus(ctx context.Context, id uuid.UUID, to domain.BookingStatus, changedBy uuid.UUID, reason string, rule cancelRule) (*CancelResult, error) {
	var (
		result CancelResult
		from   domain.BookingStatus
	)
	cancelling := to == domain.BookingStatusCancelled
	err := s.store.Transaction(ctx, func(q database.Querier) error {
		b, err := s.bookings.Lock(ctx, q, id)
		if err != nil {
			return err
		}
		from = b.Status
		if cancelling && rule == cancelStrict && !b.Status.Cancellable() {
			return fmt.Errorf("%w: cannot cancel a %s booking", domain.ErrInvalidTransition, b.Status)
		}

		if cancelling && rule != cancelWithoutRefund && b.Status.Cancellable() {
			decision := s.refunds.Resolve(b, s.now())
			b.RefundAmountCents = decision.AmountCents
			if decision.AmountCents > 0 {
				b.PaymentStatus = domain.PaymentStatusRefundPending
			}
			result.RefundAmountCents = decision.AmountCents
			result.RefundTier = decision.Tier
		}
		if err := s.transition(ctx, q, b, to, changedBy, reason); err != nil {
			return err
		}
		result.Booking = b
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	eventType := kafka.EventBookingStatusChanged
	if cancelling {
		eventType = kafka.EventBookingCancelled
		s.log.Info("booking cancelled",
			zap.String("booking_id", id.String()),
			zap.String("from", from.String()),
			zap.String("refund_tier", string(result.RefundTier)),
			zap.Int64("refund_amount_cents", result.RefundAmountCents),
		)
	} else {
		s.log.Info("booking transitioned",
			zap.String("booking_id", id.String()),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	s.publishBooking(ctx, eventType, result.Booking, from, changedBy, reason)
	if result.RefundAmountCents > 0 {
		s.requestRefund(ctx, result, reason)
	}
	return &result, nil
}

// CheckAvailability answers outside any transaction, so the result may be
// served from cache and can be stale by up to the cache TTL.
func (s *BookingService) CheckAvailability(ctx context.Context, equipmentID uuid.UUID, start, end time.Time) (bool, error) {
	eq, err := s.equipment.GetByID(ctx, s.store, equipmentID)
	if err != nil {
		return false, err
	}
	if eq.Status == domain.EquipmentStatusInactive {
		return false, domain.ErrEquipmentNotFound
	}
	if !eq.Bookable() {
		return false, nil
	}
	return s.checker.IsAvailable(ctx, s.store, equipmentID, start, end)
}

func (s *BookingService) GetBookingHistory(ctx context.Context, id uuid.UUID) ([]domain.StatusChange, error) {
	if _, err := s.bookings.GetByID(ctx, s.store, id); err != nil {
		return nil, err
	}
	return s.history.ListByBooking(ctx, s.store, id)
}

// ActivateDueBookings moves confirmed bookings whose start date has come to
// active. It returns how many were moved.
func (s *BookingService) ActivateDueBookings(ctx context.Context) (int, error) {
	today := domain.Day(s.now())
	return s.sweep(ctx, domain.BookingStatusConfirmed, today, domain.BookingStatusActive, reasonStarted)
}

// ExpireStalePending cancels pending bookings whose start date has passed
// without confirmation.
func (s *BookingService) ExpireStalePending(ctx context.Context) (int, error) {
	yesterday := domain.Day(s.now()).AddDate(0, 0, -1)
	return s.sweep(ctx, domain.BookingStatusPending, yesterday, domain.BookingStatusCancelled, reasonExpired)
}

// sweep walks every due booking in batches keyed by id, so rows it skips do
// not stop it from reaching the rest.
func (s *BookingService) sweep(ctx context.Context, from domain.BookingStatus, startingBy time.Time, to domain.BookingStatus, reason string) (int, error) {
	var (
		moved int
		errs  []error
		after uuid.UUID
	)
	for {
		ids, err := s.bookings.StartingBy(ctx, s.store, from, startingBy, after, sweepBatchSize)
		if err != nil {
			errs = append(errs, err)
			break
		}
		for _, id := range ids {
			_, err := s.changeStatus(ctx, id, to, s.systemUser, reason, cancelWithoutRefund)
			switch {
			case err == nil:
				moved++
			case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrEquipmentUnavailable):
				// moved by someone else since the scan, or blocked by an overlap
				s.log.Warn("sweep skipped booking",
					zap.String("booking_id", id.String()),
					zap.String("to", to.String()),
					zap.Error(err),
				)
			default:
				errs = append(errs, fmt.Errorf("booking %s: %w", id, err))
			}
		}
		if len(ids) < sweepBatchSize || ctx.Err() != nil {
			break
		}
		after = ids[len(ids)-1]
	}
	return moved, errors.Join(errs...)
}

// transition applies one legal status change to b inside q: row update,
// history row and, on completion, the equipment counters.
func (s *BookingService) transition(ctx context.Context, q database.Querier, b *domain.Booking, to domain.BookingStatus, changedBy uuid.UUID, reason string) error {
	from := b.Status
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	if to.Occupies() {
		free, err := s.checker.IsAvailableExcept(ctx, q, b.EquipmentID, b.StartDate, b.EndDate, b.ID)
		if err != nil {
			return err
		}
		if !free {
			return domain.ErrEquipmentUnavailable
		}
	}

	now := s.now().UTC()
	b.Status = to
	b.UpdatedAt = now
	switch to {
	case domain.BookingStatusConfirmed:
		b.ConfirmedAt = &now
	case domain.BookingStatusCompleted:
		b.CompletedAt = &now
	case domain.BookingStatusCancelled:
		b.CancelledAt = &now
		b.CancellationReason = reason
	}

	if err := s.bookings.UpdateStatus(ctx, q, b); err != nil {
		return err
	}
	if err := s.history.Append(ctx, q, &domain.StatusChange{
		BookingID:  b.ID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
		Reason:     reason,
		ChangedAt:  now,
	}); err != nil {
		return err
	}
	if to == domain.BookingStatusCompleted {
		return s.equipment.RecordCompletion(ctx, q, b.EquipmentID, b.TotalAmountCents)
	}
	return nil
}

// storeError turns an exclusion-constraint hit into the domain error.
func storeError(err error) error {
	if database.IsExclusionViolation(err) {
		return fmt.Errorf("%w: overlapping booking exists", domain.ErrEquipmentUnavailable)
	}
	return err
}

func (s *BookingService) publishBooking(ctx context.Context, eventType string, b *domain.Booking, from domain.BookingStatus, changedBy uuid.UUID, reason string) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:             eventType,
		BookingID:        b.ID,
		Reference:        b.Reference,
		EquipmentID:      b.EquipmentID,
		RenterID:         b.RenterID,
		LenderID:         b.LenderID,
		FromStatus:       string(from),
		Status:           string(b.Status),
		StartDate:        b.StartDate.Format(domain.DateLayout),
		EndDate:          b.EndDate.Format(domain.DateLayout),
		TotalAmountCents: b.TotalAmountCents,
		ChangedBy:        changedBy,
		Reason:           reason,
		OccurredAt:       s.now().UTC(),
	}

	s.publish(ctx, s.bookingTopic, b.ID.String(), event)
	if s.notificationsTopic != "" {
		s.publish(ctx, s.notificationsTopic, b.ID.String(), event)
	}
}

func (s *BookingService) requestRefund(ctx context.Context, result CancelResult, reason string) {
	if s.producer == nil || s.paymentsTopic == "" {
		return
	}
	b := result.Booking
	s.publish(ctx, s.paymentsTopic, b.ID.String(), kafka.RefundRequested{
		Type:        kafka.EventRefundRequested,
		BookingID:   b.ID,
		Reference:   b.Reference,
		RenterID:    b.RenterID,
		AmountCents: result.RefundAmountCents,
		Tier:        string(result.RefundTier),
		Reason:      reason,
		RequestedAt: s.now().UTC(),
	})
}

// publish never fails the caller: the state change is already committed.
func (s *BookingService) publish(ctx context.Context, topic, key string, value interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.producer.Publish(ctx, topic, key, value); err != nil {
		s.log.Warn("failed to publish event",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
