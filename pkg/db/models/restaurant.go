package models

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant is owned by a user; menu prices live on MenuItem and are
// snapshotted into OrderItem at checkout.
type Restaurant struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID     uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	Name        string     `gorm:"column:name;not null" json:"name"`
	Description *string    `gorm:"column:description" json:"description,omitempty"`
	LogoURL     *string    `gorm:"column:logo_url" json:"logo_url,omitempty"`
	MenuItems   []MenuItem `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"menu_items,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
