package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/gearbooking/internal/database"
	"github.com/Domenick1991/gearbooking/internal/domain"
	"github.com/Domenick1991/gearbooking/internal/repository"
	"github.com/google/uuid"
)

type CatalogUseCase interface {
	RegisterEquipment(ctx context.Context, lenderID uuid.UUID, input RegisterEquipmentInput) (*domain.Equipment, error)
	GetEquipment(ctx context.Context, id uuid.UUID) (*domain.Equipment, error)
}

type RegisterEquipmentInput struct {
	Name                 string `json:"name"`
	DailyRateCents       int64  `json:"daily_rate_cents"`
	SecurityDepositCents int64  `json:"security_deposit_cents"`
	MinRentalDays        int    `json:"min_rental_days"`
	MaxRentalDays        int    `json:"max_rental_days"`
}

// CatalogService owns the equipment items bookings are placed on. Reads go
// through the executor cache; registration invalidates it.
type CatalogService struct {
	store database.Querier
	repo  repository.EquipmentRepository
}

func NewCatalogService(store database.Querier, repo repository.EquipmentRepository) *CatalogService {
	return &CatalogService{store: store, repo: repo}
}

func (s *CatalogService) RegisterEquipment(ctx context.Context, lenderID uuid.UUID, input RegisterEquipmentInput) (*domain.Equipment, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	minDays := input.MinRentalDays
	if minDays == 0 {
		minDays = 1
	}

	eq := &domain.Equipment{
		LenderID:             lenderID,
		Name:                 strings.TrimSpace(input.Name),
		DailyRateCents:       input.DailyRateCents,
		SecurityDepositCents: input.SecurityDepositCents,
		MinRentalDays:        minDays,
		MaxRentalDays:        input.MaxRentalDays,
		Status:               domain.EquipmentStatusActive,
	}
	if err := s.repo.Create(ctx, s.store, eq); err != nil {
		return nil, err
	}
	return eq, nil
}

func (s *CatalogService) GetEquipment(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	return s.repo.GetByID(ctx, s.store, id)
}

func (in RegisterEquipmentInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	case in.DailyRateCents <= 0:
		return fmt.Errorf("%w: daily_rate_cents must be positive", domain.ErrInvalidInput)
	case in.SecurityDepositCents < 0:
		return fmt.Errorf("%w: security_deposit_cents must not be negative", domain.ErrInvalidInput)
	case in.MinRentalDays < 0:
		return fmt.Errorf("%w: min_rental_days must not be negative", domain.ErrInvalidInput)
	case in.MaxRentalDays != 0 && in.MaxRentalDays < max(in.MinRentalDays, 1):
		return fmt.Errorf("%w: max_rental_days below min_rental_days", domain.ErrInvalidInput)
	}
	return nil
}

var _ CatalogUseCase = (*CatalogService)(nil)
