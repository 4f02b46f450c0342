package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/Domenick1991/gearbooking/internal/repository"
	"github.com/Domenick1991/gearbooking/internal/service/booking"
	"github.com/Domenick1991/gearbooking/internal/service/catalog"
	"github.com/Domenick1991/gearbooking/internal/service/refund"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, renterID uuid.UUID, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, renterID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context, opts repository.ListOptions) ([]domain.Booking, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) TransitionBooking(ctx context.Context, id uuid.UUID, to domain.BookingStatus, changedBy uuid.UUID, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, id, to, changedBy, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, id uuid.UUID, cancelledBy uuid.UUID, reason string) (*booking.CancelResult, error) {
	args := m.Called(ctx, id, cancelledBy, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CancelResult), args.Error(1)
}

func (m *MockBookingUseCase) CheckAvailability(ctx context.Context, equipmentID uuid.UUID, start, end time.Time) (bool, error) {
	args := m.Called(ctx, equipmentID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingUseCase) GetBookingHistory(ctx context.Context, id uuid.UUID) ([]domain.StatusChange, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StatusChange), args.Error(1)
}

func (m *MockBookingUseCase) ActivateDueBookings(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingUseCase) ExpireStalePending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockCatalogUseCase is a mock implementation of catalog.CatalogUseCase
type MockCatalogUseCase struct {
	mock.Mock
}

func (m *MockCatalogUseCase) RegisterEquipment(ctx context.Context, lenderID uuid.UUID, input catalog.RegisterEquipmentInput) (*domain.Equipment, error) {
	args := m.Called(ctx, lenderID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func (m *MockCatalogUseCase) GetEquipment(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func newTestRouter(svc booking.BookingUseCase) *gin.Engine {
	return newTestRouterWithCatalog(svc, &MockCatalogUseCase{})
}

func newTestRouterWithCatalog(svc booking.BookingUseCase, cat catalog.CatalogUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewBookingHandler(svc).Register(r.Group("/api/v1/bookings"))
	NewEquipmentHandler(cat, svc).Register(r.Group("/api/v1/equipment"))
	return r
}

func doRequest(r http.Handler, method, path string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set(UserHeader, user.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	renter := uuid.New()
	equipmentID := uuid.New()

	input := booking.CreateBookingInput{
		EquipmentID:  equipmentID,
		StartDate:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		PickupMethod: domain.PickupMethodDelivery,
	}
	created := &domain.Booking{
		ID:               uuid.New(),
		Reference:        "RB-ABCDEFGH",
		EquipmentID:      equipmentID,
		Status:           domain.BookingStatusPending,
		TotalAmountCents: 82400,
	}
	mockService.On("CreateBooking", mock.Anything, renter, input).Return(created, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/bookings", renter, gin.H{
		"equipment_id":  equipmentID.String(),
		"start_date":    "2026-03-10",
		"end_date":      "2026-03-12",
		"pickup_method": "delivery",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var got domain.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, int64(82400), got.TotalAmountCents)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_RequiresUser(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)

	w := doRequest(r, http.MethodPost, "/api/v1/bookings", uuid.Nil, gin.H{"equipment_id": uuid.NewString()})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_create_BadDate(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)

	w := doRequest(r, http.MethodPost, "/api/v1/bookings", uuid.New(), gin.H{
		"equipment_id": uuid.NewString(),
		"start_date":   "10/03/2026",
		"end_date":     "2026-03-12",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_date_range")
}

func TestBookingHandler_create_ErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		status     int
		retryAfter bool
	}{
		{domain.ErrEquipmentUnavailable, http.StatusConflict, false},
		{domain.ErrEquipmentNotFound, http.StatusNotFound, false},
		{domain.ErrSelfBookingForbidden, http.StatusForbidden, false},
		{domain.ErrInvalidDuration, http.StatusUnprocessableEntity, false},
		{domain.ErrPoolExhausted, http.StatusServiceUnavailable, true},
		{domain.ErrTransactionAborted, http.StatusServiceUnavailable, true},
		{assert.AnError, http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			r := newTestRouter(mockService)
			mockService.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doRequest(r, http.MethodPost, "/api/v1/bookings", uuid.New(), gin.H{
				"equipment_id": uuid.NewString(),
				"start_date":   "2026-03-10",
				"end_date":     "2026-03-12",
			})

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After") != "")
		})
	}
}

func TestBookingHandler_get(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	id := uuid.New()
	mockService.On("GetBooking", mock.Anything, id).Return(&domain.Booking{ID: id}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/bookings/"+id.String(), uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/bookings/not-a-uuid", uuid.Nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_transition(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	id, actor := uuid.New(), uuid.New()
	mockService.On("TransitionBooking", mock.Anything, id, domain.BookingStatusConfirmed, actor, "looks good").
		Return(&domain.Booking{ID: id, Status: domain.BookingStatusConfirmed}, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/bookings/"+id.String()+"/transitions", actor,
		gin.H{"status": "confirmed", "reason": "looks good"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/bookings/"+id.String()+"/transitions", actor, gin.H{"status": "archived"})
	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertNumberOfCalls(t, "TransitionBooking", 1)
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	id, actor := uuid.New(), uuid.New()
	mockService.On("CancelBooking", mock.Anything, id, actor, "").Return(&booking.CancelResult{
		Booking:           &domain.Booking{ID: id, Status: domain.BookingStatusCancelled},
		RefundAmountCents: 41200,
		RefundTier:        refund.TierHalf,
	}, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/bookings/"+id.String()+"/cancel", actor, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var got struct {
		RefundAmountCents int64  `json:"refund_amount_cents"`
		RefundTier        string `json:"refund_tier"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(41200), got.RefundAmountCents)
	assert.Equal(t, "half", got.RefundTier)
}

func TestBookingHandler_history(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	id := uuid.New()
	mockService.On("GetBookingHistory", mock.Anything, id).Return(nil, domain.ErrBookingNotFound)

	w := doRequest(r, http.MethodGet, "/api/v1/bookings/"+id.String()+"/history", uuid.Nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_list(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	renter := uuid.New()
	want := repository.ListOptions{
		RenterID: renter,
		Status:   domain.BookingStatusConfirmed,
		SortBy:   repository.SortByStartDate,
		Limit:    10,
		Offset:   20,
	}
	mockService.On("ListBookings", mock.Anything, want).Return([]domain.Booking{{ID: uuid.New()}}, nil)

	w := doRequest(r, http.MethodGet,
		"/api/v1/bookings?renter_id="+renter.String()+"&status=confirmed&sort=start_date&order=asc&limit=10&offset=20", uuid.Nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	for _, q := range []string{"?sort=renter_id", "?order=sideways", "?limit=-1", "?renter_id=nope", "?status=lost"} {
		w = doRequest(r, http.MethodGet, "/api/v1/bookings"+q, uuid.Nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
	mockService.AssertNumberOfCalls(t, "ListBookings", 1)
}

func TestBookingHandler_list_ClampsLimit(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	mockService.On("ListBookings", mock.Anything, mock.MatchedBy(func(o repository.ListOptions) bool {
		return o.Limit == 200
	})).Return([]domain.Booking{}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/bookings?limit=1000", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 200, got.Limit)
	assert.Equal(t, 0, got.Offset)
	mockService.AssertExpectations(t)
}

func TestEquipmentHandler_availability(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService)
	id := uuid.New()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	mockService.On("CheckAvailability", mock.Anything, id, start, end).Return(false, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/equipment/"+id.String()+"/availability?start=2026-03-10&end=2026-03-12", uuid.Nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var got availabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.Available)
	assert.Equal(t, "2026-03-10", got.StartDate)

	w = doRequest(r, http.MethodGet, "/api/v1/equipment/"+id.String()+"/availability?start=2026-03-10", uuid.Nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEquipmentHandler_create(t *testing.T) {
	mockCatalog := &MockCatalogUseCase{}
	r := newTestRouterWithCatalog(&MockBookingUseCase{}, mockCatalog)
	lender := uuid.New()
	input := catalog.RegisterEquipmentInput{Name: "Tent", DailyRateCents: 1500, MaxRentalDays: 14}
	mockCatalog.On("RegisterEquipment", mock.Anything, lender, input).
		Return(&domain.Equipment{ID: uuid.New(), LenderID: lender, Name: "Tent"}, nil).Once()
	mockCatalog.On("RegisterEquipment", mock.Anything, lender, catalog.RegisterEquipmentInput{Name: "Tent"}).
		Return(nil, domain.ErrInvalidInput).Once()

	w := doRequest(r, http.MethodPost, "/api/v1/equipment", lender, input)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/equipment", lender, gin.H{"name": "Tent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockCatalog.AssertExpectations(t)
}

func TestEquipmentHandler_get(t *testing.T) {
	mockCatalog := &MockCatalogUseCase{}
	r := newTestRouterWithCatalog(&MockBookingUseCase{}, mockCatalog)
	id := uuid.New()
	mockCatalog.On("GetEquipment", mock.Anything, id).Return(nil, domain.ErrEquipmentNotFound)

	w := doRequest(r, http.MethodGet, "/api/v1/equipment/"+id.String(), uuid.Nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
