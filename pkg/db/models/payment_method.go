package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/splitbite/splitbite-backend/pkg/enums"
)

// PaymentMethod is a stored settlement instrument owned by a user.
// AccountNumber holds a masked representation, never raw card data.
type PaymentMethod struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Type          enums.PaymentMethodType `gorm:"column:type;type:text;not null;default:'card'" json:"type"`
	AccountNumber string                  `gorm:"column:account_number;not null" json:"account_number"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
