package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

func (r *Repository) FetchPending(limit int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	err := r.db.Where("status = ?", models.OutboxStatusPending).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublished(id uuid.UUID) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       models.OutboxStatusPublished,
			"published_at": time.Now(),
		}).Error
}

// MarkFailed records the publish error and bumps the attempt counter. Rows
// that exhaust maxAttempts move to the failed status and are no longer polled.
func (r *Repository) MarkFailed(id uuid.UUID, publishErr error, maxAttempts int) error {
	updates := map[string]any{
		"last_error": publishErr.Error(),
		"attempts":   gorm.Expr("attempts + 1"),
	}
	if err := r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return err
	}
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ? AND attempts >= ?", id, maxAttempts).
		Update("status", models.OutboxStatusFailed).Error
}
