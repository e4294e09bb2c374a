package restaurants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
)

// Service exposes restaurant browsing and owner-side menu management.
type Service interface {
	List(ctx context.Context) ([]models.Restaurant, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	Create(ctx context.Context, input CreateRestaurantInput) (*models.Restaurant, error)
	AddMenuItem(ctx context.Context, input AddMenuItemInput) (*models.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, actingUserID, restaurantID, itemID uuid.UUID, available bool) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires a restaurants service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("restaurants repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// CreateRestaurantInput describes a new restaurant owned by the acting user.
type CreateRestaurantInput struct {
	OwnerID     uuid.UUID
	Name        string
	Description *string
	LogoURL     *string
}

// AddMenuItemInput describes a new dish on the owner's menu.
type AddMenuItemInput struct {
	ActingUserID uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Description  *string
	Price        decimal.Decimal
	ImageURL     *string
}

func (s *service) List(ctx context.Context) ([]models.Restaurant, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing restaurants")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading restaurant")
	}
	return restaurant, nil
}

func (s *service) Create(ctx context.Context, input CreateRestaurantInput) (*models.Restaurant, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant name is required")
	}

	restaurant := &models.Restaurant{
		OwnerID:     input.OwnerID,
		Name:        input.Name,
		Description: input.Description,
		LogoURL:     input.LogoURL,
	}
	if err := s.repo.Create(ctx, restaurant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating restaurant")
	}
	return restaurant, nil
}

func (s *service) AddMenuItem(ctx context.Context, input AddMenuItemInput) (*models.MenuItem, error) {
	if input.ActingUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	if err := s.ownerGate(ctx, input.ActingUserID, input.RestaurantID); err != nil {
		return nil, err
	}

	item := &models.MenuItem{
		RestaurantID: input.RestaurantID,
		Name:         input.Name,
		Description:  input.Description,
		Price:        input.Price.Round(2),
		ImageURL:     input.ImageURL,
		Available:    true,
	}
	if err := s.repo.CreateMenuItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating menu item")
	}
	return item, nil
}

func (s *service) SetMenuItemAvailability(ctx context.Context, actingUserID, restaurantID, itemID uuid.UUID, available bool) error {
	if actingUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.ownerGate(ctx, actingUserID, restaurantID); err != nil {
		return err
	}
	updated, err := s.repo.UpdateMenuItemAvailability(ctx, itemID, available)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating menu item")
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
	}
	return nil
}

func (s *service) ownerGate(ctx context.Context, actingUserID, restaurantID uuid.UUID) error {
	restaurant, err := s.repo.GetByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading restaurant")
	}
	if restaurant.OwnerID != actingUserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the restaurant owner may manage its menu")
	}
	return nil
}
