package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitbite/splitbite-backend/pkg/enums"
)

// Payment records who paid how much toward an order. Only rows in a valid
// status (paid/completed) count toward settlement.
type Payment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	UserID    uuid.UUID           `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Status    enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	User      *User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
