package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitbite/splitbite-backend/pkg/enums"
)

// Reimbursement is a directed ledger edge: debtor owes creditor for one
// order. The (debtor, creditor, order) triple is unique at the storage
// layer so concurrent recomputation cannot create duplicate rows. Once the
// status enters a settled state the row is terminal.
type Reimbursement struct {
	ID                   uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID              uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_reimbursements_debtor_creditor_order" json:"order_id"`
	DebtorID             uuid.UUID                 `gorm:"column:debtor_id;type:uuid;not null;uniqueIndex:idx_reimbursements_debtor_creditor_order" json:"debtor_id"`
	CreditorID           uuid.UUID                 `gorm:"column:creditor_id;type:uuid;not null;uniqueIndex:idx_reimbursements_debtor_creditor_order" json:"creditor_id"`
	Amount               decimal.Decimal           `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	Status               enums.ReimbursementStatus `gorm:"column:status;type:text;not null;default:'unpaid'" json:"status"`
	Description          *string                   `gorm:"column:description" json:"description,omitempty"`
	SettledAt            *time.Time                `gorm:"column:settled_at" json:"settled_at,omitempty"`
	PaymentMethodID      *uuid.UUID                `gorm:"column:payment_method_id;type:uuid" json:"payment_method_id,omitempty"`
	TransactionReference *string                   `gorm:"column:transaction_reference" json:"transaction_reference,omitempty"`
	Debtor               *User                     `gorm:"foreignKey:DebtorID" json:"debtor,omitempty"`
	Creditor             *User                     `gorm:"foreignKey:CreditorID" json:"creditor,omitempty"`
	Order                *Order                    `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	CreatedAt            time.Time                 `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time                 `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
