package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
)

// Repository manages cart persistence. Carts are created lazily on first
// touch, one per user and one per group.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	IsGroupMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	FindOrCreateUserCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindOrCreateGroupCart(ctx context.Context, groupID uuid.UUID) (*models.Cart, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	AddItem(ctx context.Context, item *models.CartItem) error
	GetItem(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	RemoveItem(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cart repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) IsGroupMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) FindOrCreateUserCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.findOrCreate(ctx, "user_id = ?", userID, &models.Cart{UserID: &userID})
}

func (r *repository) FindOrCreateGroupCart(ctx context.Context, groupID uuid.UUID) (*models.Cart, error) {
	return r.findOrCreate(ctx, "group_id = ?", groupID, &models.Cart{GroupID: &groupID})
}

func (r *repository) findOrCreate(ctx context.Context, query string, arg any, blank *models.Cart) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).Where(query, arg).First(&cart).Error
	if err == nil {
		return r.loadItems(ctx, &cart)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if createErr := r.db.WithContext(ctx).Create(blank).Error; createErr != nil {
		// Concurrent first touch; the unique owner column resolves the
		// race, so re-read whichever row won.
		if readErr := r.db.WithContext(ctx).Where(query, arg).First(&cart).Error; readErr != nil {
			return nil, createErr
		}
		return r.loadItems(ctx, &cart)
	}
	return r.loadItems(ctx, blank)
}

func (r *repository) loadItems(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.db.WithContext(ctx).
		Preload("MenuItem").
		Where("cart_id = ?", cart.ID).
		Order("created_at ASC").
		Find(&cart.Items).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *repository) GetMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) AddItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) GetItem(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) RemoveItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", id).Error
}
