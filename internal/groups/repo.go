package groups

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
)

// Repository manages group and membership persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Group, error)
	AddMember(ctx context.Context, membership *models.GroupMembership) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMembership, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a groups repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).
		Preload("Memberships").
		Preload("Memberships.User").
		First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.WithContext(ctx).
		Joins("JOIN group_memberships ON group_memberships.group_id = groups.id").
		Where("group_memberships.user_id = ?", userID).
		Order("groups.created_at ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repository) AddMember(ctx context.Context, membership *models.GroupMembership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *repository) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMembership{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) GetMembership(ctx context.Context, groupID, userID uuid.UUID) (*models.GroupMembership, error) {
	var membership models.GroupMembership
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

