package restaurants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
)

// Repository manages restaurant and menu persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	List(ctx context.Context) ([]models.Restaurant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	Create(ctx context.Context, restaurant *models.Restaurant) error
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	UpdateMenuItemAvailability(ctx context.Context, itemID uuid.UUID, available bool) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a restaurants repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context) ([]models.Restaurant, error) {
	var rows []models.Restaurant
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).
		Preload("MenuItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("menu_items.name ASC")
		}).
		First(&restaurant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (r *repository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	return r.db.WithContext(ctx).Create(restaurant).Error
}

func (r *repository) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateMenuItemAvailability(ctx context.Context, itemID uuid.UUID, available bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ?", itemID).
		Update("available", available)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
