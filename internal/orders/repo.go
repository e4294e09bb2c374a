package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	"github.com/splitbite/splitbite-backend/pkg/enums"
)

// Repository manages read and status-update persistence for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Restaurant").
		Preload("Items").
		Preload("Payments").
		Joins("JOIN order_participants ON order_participants.order_id = orders.id").
		Where("order_participants.user_id = ?", userID).
		Order("orders.order_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.User").
		Where("restaurant_id = ?", restaurantID).
		Order("order_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Restaurant").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}
