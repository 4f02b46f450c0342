package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/gearbooking/internal/database"
	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEquipmentRepository struct {
	mock.Mock
}

func (m *MockEquipmentRepository) Create(ctx context.Context, q database.Querier, eq *domain.Equipment) error {
	args := m.Called(ctx, q, eq)
	return args.Error(0)
}

func (m *MockEquipmentRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Equipment, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func (m *MockEquipmentRepository) Lock(ctx context.Context, q database.Querier, id uuid.UUID) (*domain.Equipment, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func (m *MockEquipmentRepository) RecordCompletion(ctx context.Context, q database.Querier, id uuid.UUID, revenueCents int64) error {
	args := m.Called(ctx, q, id, revenueCents)
	return args.Error(0)
}

// nopQuerier stands in for the executor; the mocked repository never uses it.
type nopQuerier struct{}

func (nopQuerier) Query(context.Context, database.Statement, func(database.Rows) error) error {
	return nil
}

func (nopQuerier) Exec(context.Context, database.Statement) (int64, error) { return 0, nil }

func TestCatalogService_RegisterEquipment(t *testing.T) {
	mockRepo := &MockEquipmentRepository{}
	service := NewCatalogService(nopQuerier{}, mockRepo)
	ctx := context.Background()
	lender := uuid.New()

	mockRepo.On("Create", ctx, nopQuerier{}, mock.MatchedBy(func(eq *domain.Equipment) bool {
		return eq.LenderID == lender && eq.Name == "Drone" && eq.MinRentalDays == 1 &&
			eq.Status == domain.EquipmentStatusActive
	})).Run(func(args mock.Arguments) {
		eq := args.Get(2).(*domain.Equipment)
		eq.ID = uuid.New()
		eq.CreatedAt = time.Now()
	}).Return(nil).Once()

	eq, err := service.RegisterEquipment(ctx, lender, RegisterEquipmentInput{
		Name:                 "  Drone ",
		DailyRateCents:       4500,
		SecurityDepositCents: 20000,
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, eq.ID)
	assert.Equal(t, int64(4500), eq.DailyRateCents)
	mockRepo.AssertExpectations(t)
}

func TestCatalogService_RegisterEquipment_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterEquipmentInput
	}{
		{"missing name", RegisterEquipmentInput{DailyRateCents: 100}},
		{"zero rate", RegisterEquipmentInput{Name: "Tent"}},
		{"negative deposit", RegisterEquipmentInput{Name: "Tent", DailyRateCents: 100, SecurityDepositCents: -1}},
		{"max below min", RegisterEquipmentInput{Name: "Tent", DailyRateCents: 100, MinRentalDays: 5, MaxRentalDays: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockEquipmentRepository{}
			service := NewCatalogService(nopQuerier{}, mockRepo)

			_, err := service.RegisterEquipment(context.Background(), uuid.New(), tt.input)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCatalogService_GetEquipment(t *testing.T) {
	mockRepo := &MockEquipmentRepository{}
	service := NewCatalogService(nopQuerier{}, mockRepo)
	ctx := context.Background()
	id := uuid.New()

	mockRepo.On("GetByID", ctx, nopQuerier{}, id).Return(nil, domain.ErrEquipmentNotFound).Once()

	_, err := service.GetEquipment(ctx, id)

	assert.ErrorIs(t, err, domain.ErrEquipmentNotFound)
	mockRepo.AssertExpectations(t)
}
