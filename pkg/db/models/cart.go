package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart belongs to exactly one of a user or a group; the database CHECK
// constraint enforces the exclusive-owner rule. The row survives checkout,
// only its items are cleared.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"column:user_id;type:uuid;unique" json:"user_id,omitempty"`
	GroupID   *uuid.UUID `gorm:"column:group_id;type:uuid;unique" json:"group_id,omitempty"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// CartItem carries the contributing user, which later becomes the
// attribution key for cost splitting.
type CartItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID         uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index" json:"cart_id"`
	MenuItemID     uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null" json:"menu_item_id"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Quantity       int       `gorm:"column:quantity;not null;default:1" json:"quantity"`
	SpecialRequest *string   `gorm:"column:special_request" json:"special_request,omitempty"`
	MenuItem       *MenuItem `gorm:"foreignKey:MenuItemID" json:"menu_item,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
