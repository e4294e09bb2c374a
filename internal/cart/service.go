package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
)

// Service exposes cart reads and edits for personal and group carts.
type Service interface {
	GetCart(ctx context.Context, actingUserID uuid.UUID, groupID *uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, input AddItemInput) (*models.CartItem, error)
	RemoveItem(ctx context.Context, actingUserID uuid.UUID, groupID *uuid.UUID, itemID uuid.UUID) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires a cart service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// AddItemInput describes one item being added to a cart. A nil GroupID
// targets the acting user's personal cart.
type AddItemInput struct {
	ActingUserID   uuid.UUID
	GroupID        *uuid.UUID
	MenuItemID     uuid.UUID
	Quantity       int
	SpecialRequest *string
}

func (s *service) GetCart(ctx context.Context, actingUserID uuid.UUID, groupID *uuid.UUID) (*models.Cart, error) {
	if actingUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.gateGroup(ctx, actingUserID, groupID); err != nil {
		return nil, err
	}
	cart, err := s.resolveCart(ctx, actingUserID, groupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (*models.CartItem, error) {
	if input.ActingUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.MenuItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "menu item id is required")
	}
	if input.Quantity <= 0 {
		input.Quantity = 1
	}
	if err := s.gateGroup(ctx, input.ActingUserID, input.GroupID); err != nil {
		return nil, err
	}

	menuItem, err := s.repo.GetMenuItem(ctx, input.MenuItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading menu item")
	}
	if !menuItem.Available {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "menu item is not available")
	}

	cart, err := s.resolveCart(ctx, input.ActingUserID, input.GroupID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	// One restaurant per cart; checkout depends on this.
	for _, existing := range cart.Items {
		if existing.MenuItem != nil && existing.MenuItem.RestaurantID != menuItem.RestaurantID {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart already contains items from another restaurant")
		}
	}

	item := &models.CartItem{
		CartID:         cart.ID,
		MenuItemID:     menuItem.ID,
		UserID:         input.ActingUserID,
		Quantity:       input.Quantity,
		SpecialRequest: input.SpecialRequest,
	}
	if err := s.repo.AddItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding cart item")
	}
	item.MenuItem = menuItem
	return item, nil
}

func (s *service) RemoveItem(ctx context.Context, actingUserID uuid.UUID, groupID *uuid.UUID, itemID uuid.UUID) error {
	if actingUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.gateGroup(ctx, actingUserID, groupID); err != nil {
		return err
	}
	cart, err := s.resolveCart(ctx, actingUserID, groupID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart item")
	}
	if item.CartID != cart.ID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if item.UserID != actingUserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the user who added an item may remove it")
	}

	if err := s.repo.RemoveItem(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
	}
	return nil
}

func (s *service) gateGroup(ctx context.Context, actingUserID uuid.UUID, groupID *uuid.UUID) error {
	if groupID == nil {
		return nil
	}
	member, err := s.repo.IsGroupMember(ctx, *groupID, actingUserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking group membership")
	}
	if !member {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
	}
	return nil
}

func (s *service) resolveCart(ctx context.Context, actingUserID uuid.UUID, groupID *uuid.UUID) (*models.Cart, error) {
	if groupID != nil {
		return s.repo.FindOrCreateGroupCart(ctx, *groupID)
	}
	return s.repo.FindOrCreateUserCart(ctx, actingUserID)
}
