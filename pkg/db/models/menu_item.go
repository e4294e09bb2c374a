package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is the live, mutable menu entry. Orders never reference its
// price directly; OrderItem freezes a copy instead.
type MenuItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RestaurantID uuid.UUID       `gorm:"column:restaurant_id;type:uuid;not null;index" json:"restaurant_id"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Description  *string         `gorm:"column:description" json:"description,omitempty"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	ImageURL     *string         `gorm:"column:image_url" json:"image_url,omitempty"`
	Available    bool            `gorm:"column:available;not null;default:true" json:"available"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
