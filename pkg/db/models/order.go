package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitbite/splitbite-backend/pkg/enums"
)

// Order is immutable once created except for status; items, participants
// and payments are frozen by the placement transaction.
type Order struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RestaurantID uuid.UUID          `gorm:"column:restaurant_id;type:uuid;not null;index" json:"restaurant_id"`
	Status       enums.OrderStatus  `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	TotalPrice   decimal.Decimal    `gorm:"column:total_price;type:numeric(10,2);not null" json:"total_price"`
	OrderDate    time.Time          `gorm:"column:order_date;not null;autoCreateTime" json:"order_date"`
	Restaurant   *Restaurant        `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	Items        []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Participants []OrderParticipant `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Payments     []Payment          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// OrderItem is the frozen snapshot of a menu item at order time, tagged
// with the contributing user. Later menu edits must not change it.
type OrderItem struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID            uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	MenuItemID         *uuid.UUID      `gorm:"column:menu_item_id;type:uuid" json:"menu_item_id,omitempty"`
	UserID             uuid.UUID       `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	NameAtOrder        string          `gorm:"column:name_at_order;not null" json:"name_at_order"`
	PriceAtOrder       decimal.Decimal `gorm:"column:price_at_order;type:numeric(10,2);not null" json:"price_at_order"`
	DescriptionAtOrder *string         `gorm:"column:description_at_order" json:"description_at_order,omitempty"`
	ImageURLAtOrder    *string         `gorm:"column:image_url_at_order" json:"image_url_at_order,omitempty"`
	SpecialRequest     *string         `gorm:"column:special_request" json:"special_request,omitempty"`
	Quantity           int             `gorm:"column:quantity;not null;default:1" json:"quantity"`
	User               *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// OrderParticipant marks one distinct contributing user on an order;
// more than one row makes the order a group order.
type OrderParticipant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_order_participants_order_user" json:"order_id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_order_participants_order_user" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
