package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/splitbite/splitbite-backend/pkg/enums"
)

// Group is a named collection of users sharing one cart.
type Group struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string            `gorm:"column:name;not null" json:"name"`
	OwnerID     uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	Memberships []GroupMembership `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// GroupMembership links a user to a group; (group_id, user_id) is unique.
type GroupMembership struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	GroupID   uuid.UUID       `gorm:"column:group_id;type:uuid;not null;uniqueIndex:idx_group_memberships_group_user" json:"group_id"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_group_memberships_group_user" json:"user_id"`
	Role      enums.GroupRole `gorm:"column:role;type:text;not null;default:'member'" json:"role"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
