package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
)

// Repository manages the persistence surface of a checkout: the cart being
// drained and the order graph being created.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	IsGroupMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	FindUserCartForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindGroupCartForUpdate(ctx context.Context, groupID uuid.UUID) (*models.Cart, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a checkout repository bound to the provided database.
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

func (r *repository) FindUserCartForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.findCartForUpdate(ctx, "user_id = ?", userID)
}

func (r *repository) FindGroupCartForUpdate(ctx context.Context, groupID uuid.UUID) (*models.Cart, error) {
	return r.findCartForUpdate(ctx, "group_id = ?", groupID)
}

// findCartForUpdate locks the cart row for the duration of the checkout
// transaction so two concurrent checkouts cannot both drain the same cart.
func (r *repository) findCartForUpdate(ctx context.Context, query string, arg any) (*models.Cart, error) {
	q := r.db.WithContext(ctx)
	// sqlite has no row locks
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	var cart models.Cart
	if err := q.Where(query, arg).First(&cart).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Preload("MenuItem").
		Where("cart_id = ?", cart.ID).
		Order("created_at ASC").
		Find(&cart.Items).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}
