package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	"github.com/splitbite/splitbite-backend/pkg/enums"
)

// Repository manages persistence for reimbursements and the order data the
// engine derives them from.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	LoadOrderSnapshot(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Reimbursement, error)
	Create(ctx context.Context, row *models.Reimbursement) error
	UpdateUnpaidAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error)

	ListOrderIDsForParticipant(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Reimbursement, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Reimbursement, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*models.Reimbursement, error)
	SettleUnpaid(ctx context.Context, id uuid.UUID, update SettleUpdate) (bool, error)
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
}

// SettleUpdate carries the terminal fields written by the settlement mutator.
type SettleUpdate struct {
	Status               enums.ReimbursementStatus
	SettledAt            time.Time
	PaymentMethodID      *uuid.UUID
	TransactionReference *string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) LoadOrderSnapshot(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &OrderSnapshot{
		OrderID:    order.ID,
		TotalPrice: order.TotalPrice,
		Items:      order.Items,
		Payments:   order.Payments,
	}, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Reimbursement, error) {
	var rows []models.Reimbursement
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Create(ctx context.Context, row *models.Reimbursement) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// UpdateUnpaidAmount adjusts the amount of an outstanding row. The status
// guard makes the write a no-op when the row was settled concurrently.
func (r *repository) UpdateUnpaidAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reimbursement{}).
		Where("id = ? AND status = ?", id, enums.ReimbursementStatusUnpaid).
		Update("amount", amount)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListOrderIDsForParticipant(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.OrderParticipant{}).
		Where("user_id = ?", userID).
		Pluck("order_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Reimbursement, error) {
	var rows []models.Reimbursement
	if err := r.db.WithContext(ctx).
		Preload("Debtor").
		Preload("Creditor").
		Preload("Order").
		Preload("Order.Restaurant").
		Where("debtor_id = ? OR creditor_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reimbursement, error) {
	var row models.Reimbursement
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// GetDetail loads one reimbursement with its parties, order and restaurant.
func (r *repository) GetDetail(ctx context.Context, id uuid.UUID) (*models.Reimbursement, error) {
	var row models.Reimbursement
	if err := r.db.WithContext(ctx).
		Preload("Debtor").
		Preload("Creditor").
		Preload("Order").
		Preload("Order.Restaurant").
		First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SettleUnpaid performs the settle transition as a single compare-and-set so
// concurrent callers cannot both succeed.
func (r *repository) SettleUnpaid(ctx context.Context, id uuid.UUID, update SettleUpdate) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reimbursement{}).
		Where("id = ? AND status = ?", id, enums.ReimbursementStatusUnpaid).
		Updates(map[string]any{
			"status":                update.Status,
			"settled_at":            update.SettledAt,
			"payment_method_id":     update.PaymentMethodID,
			"transaction_reference": update.TransactionReference,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).First(&method, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}
