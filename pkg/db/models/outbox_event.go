package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	OutboxStatusPending   = "pending"
	OutboxStatusPublished = "published"
	OutboxStatusFailed    = "failed"
)

// OutboxEvent is a domain event written in the same transaction as the
// state change it describes; a separate publisher drains it to Pub/Sub.
type OutboxEvent struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EventType     string          `gorm:"column:event_type;not null" json:"event_type"`
	AggregateType string          `gorm:"column:aggregate_type;not null" json:"aggregate_type"`
	AggregateID   uuid.UUID       `gorm:"column:aggregate_id;type:uuid;not null" json:"aggregate_id"`
	Payload       json.RawMessage `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	Status        string          `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Attempts      int             `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError     *string         `gorm:"column:last_error" json:"last_error,omitempty"`
	PublishedAt   *time.Time      `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
