package restaurants

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
)

type fakeRestaurantsRepo struct {
	restaurants map[uuid.UUID]*models.Restaurant
	menuItems   map[uuid.UUID]*models.MenuItem
}

func newFakeRestaurantsRepo() *fakeRestaurantsRepo {
	return &fakeRestaurantsRepo{
		restaurants: make(map[uuid.UUID]*models.Restaurant),
		menuItems:   make(map[uuid.UUID]*models.MenuItem),
	}
}

func (f *fakeRestaurantsRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRestaurantsRepo) List(ctx context.Context) ([]models.Restaurant, error) {
	var out []models.Restaurant
	for _, restaurant := range f.restaurants {
		out = append(out, *restaurant)
	}
	return out, nil
}

func (f *fakeRestaurantsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, ok := f.restaurants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return restaurant, nil
}

func (f *fakeRestaurantsRepo) Create(ctx context.Context, restaurant *models.Restaurant) error {
	if restaurant.ID == uuid.Nil {
		restaurant.ID = uuid.New()
	}
	f.restaurants[restaurant.ID] = restaurant
	return nil
}

func (f *fakeRestaurantsRepo) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.menuItems[item.ID] = item
	return nil
}

func (f *fakeRestaurantsRepo) UpdateMenuItemAvailability(ctx context.Context, itemID uuid.UUID, available bool) (bool, error) {
	item, ok := f.menuItems[itemID]
	if !ok {
		return false, nil
	}
	item.Available = available
	return true, nil
}

func newRestaurantsService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "restaurants-test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func TestAddMenuItem_OwnerOnly(t *testing.T) {
	repo := newFakeRestaurantsRepo()
	svc := newRestaurantsService(t, repo)
	owner := uuid.New()

	restaurant, err := svc.Create(context.Background(), CreateRestaurantInput{OwnerID: owner, Name: "Taqueria"})
	if err != nil {
		t.Fatalf("create restaurant: %v", err)
	}

	item, err := svc.AddMenuItem(context.Background(), AddMenuItemInput{
		ActingUserID: owner,
		RestaurantID: restaurant.ID,
		Name:         "Al Pastor",
		Price:        decimal.RequireFromString("9.995"),
	})
	if err != nil {
		t.Fatalf("add menu item: %v", err)
	}
	if !item.Price.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("price not rounded to cents: %s", item.Price)
	}
	if !item.Available {
		t.Fatalf("new items should default to available")
	}

	_, err = svc.AddMenuItem(context.Background(), AddMenuItemInput{
		ActingUserID: uuid.New(),
		RestaurantID: restaurant.ID,
		Name:         "Carnitas",
		Price:        decimal.RequireFromString("8.00"),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
}

func TestAddMenuItem_NegativePriceRejected(t *testing.T) {
	repo := newFakeRestaurantsRepo()
	svc := newRestaurantsService(t, repo)
	owner := uuid.New()

	restaurant, err := svc.Create(context.Background(), CreateRestaurantInput{OwnerID: owner, Name: "Taqueria"})
	if err != nil {
		t.Fatalf("create restaurant: %v", err)
	}

	_, err = svc.AddMenuItem(context.Background(), AddMenuItemInput{
		ActingUserID: owner,
		RestaurantID: restaurant.ID,
		Name:         "Oops",
		Price:        decimal.RequireFromString("-1.00"),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetMenuItemAvailability(t *testing.T) {
	repo := newFakeRestaurantsRepo()
	svc := newRestaurantsService(t, repo)
	owner := uuid.New()

	restaurant, err := svc.Create(context.Background(), CreateRestaurantInput{OwnerID: owner, Name: "Taqueria"})
	if err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	item, err := svc.AddMenuItem(context.Background(), AddMenuItemInput{
		ActingUserID: owner,
		RestaurantID: restaurant.ID,
		Name:         "Al Pastor",
		Price:        decimal.RequireFromString("9.50"),
	})
	if err != nil {
		t.Fatalf("add menu item: %v", err)
	}

	if err := svc.SetMenuItemAvailability(context.Background(), owner, restaurant.ID, item.ID, false); err != nil {
		t.Fatalf("set availability: %v", err)
	}
	if repo.menuItems[item.ID].Available {
		t.Fatalf("item still available after update")
	}

	err = svc.SetMenuItemAvailability(context.Background(), owner, restaurant.ID, uuid.New(), false)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown item, got %v", err)
	}

	err = svc.SetMenuItemAvailability(context.Background(), uuid.New(), restaurant.ID, item.ID, true)
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
}
