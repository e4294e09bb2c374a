package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	"github.com/splitbite/splitbite-backend/pkg/enums"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
	"github.com/splitbite/splitbite-backend/pkg/outbox"
)

// Service defines the settlement operations: deriving debt edges for an
// order, aggregating a user's ledger, and settling a single reimbursement.
type Service interface {
	SyncOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	GetLedger(ctx context.Context, userID uuid.UUID) (*Ledger, error)
	GetReimbursement(ctx context.Context, actingUserID, reimbursementID uuid.UUID) (*models.Reimbursement, error)
	MarkSettled(ctx context.Context, input MarkSettledInput) (*models.Reimbursement, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	runner TxRunner
	repo   Repository
	events eventEmitter
	logg   *logger.Logger
}

// NewService wires a settlement service.
func NewService(runner TxRunner, repo Repository, events eventEmitter, logg *logger.Logger) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{runner: runner, repo: repo, events: events, logg: logg}, nil
}

// MarkSettledInput carries a settle request for one reimbursement.
type MarkSettledInput struct {
	ReimbursementID      uuid.UUID
	ActingUserID         uuid.UUID
	Status               enums.ReimbursementStatus
	SettledAt            *time.Time
	PaymentMethodID      *uuid.UUID
	TransactionReference *string
}

// SyncOrder recomputes the debt edges for the order and reconciles the
// stored reimbursement rows with them. Settled rows are terminal and are
// never touched. When tx is non-nil the sync joins the caller's transaction.
func (s *service) SyncOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	repo := s.repo.WithTx(tx)

	snap, err := repo.LoadOrderSnapshot(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order for settlement")
	}

	edges, err := ComputeDebts(*snap)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order totals do not reconcile")
	}

	existing, err := repo.ListByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing reimbursements")
	}
	byPair := make(map[string]models.Reimbursement, len(existing))
	for _, row := range existing {
		byPair[pairKey(row.DebtorID, row.CreditorID)] = row
	}

	for _, edge := range edges {
		if err := s.applyEdge(ctx, repo, orderID, edge, byPair); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) applyEdge(ctx context.Context, repo Repository, orderID uuid.UUID, edge DebtEdge, byPair map[string]models.Reimbursement) error {
	current, ok := byPair[pairKey(edge.DebtorID, edge.CreditorID)]
	if !ok {
		row := &models.Reimbursement{
			OrderID:    orderID,
			DebtorID:   edge.DebtorID,
			CreditorID: edge.CreditorID,
			Amount:     edge.Amount,
			Status:     enums.ReimbursementStatusUnpaid,
		}
		err := repo.Create(ctx, row)
		if err == nil {
			return nil
		}
		if !pkgerrors.IsUniqueViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating reimbursement")
		}
		// Lost the insert race; fall through to the update path against
		// the row the concurrent writer created.
		rows, listErr := repo.ListByOrder(ctx, orderID)
		if listErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, listErr, "reloading reimbursements")
		}
		found := false
		for _, candidate := range rows {
			if candidate.DebtorID == edge.DebtorID && candidate.CreditorID == edge.CreditorID {
				current = candidate
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating reimbursement")
		}
	}

	if current.Status.IsSettled() {
		return nil
	}
	if current.Amount.Sub(edge.Amount).Abs().LessThanOrEqual(noiseThreshold) {
		return nil
	}
	if _, err := repo.UpdateUnpaidAmount(ctx, current.ID, edge.Amount); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating reimbursement amount")
	}
	return nil
}

// GetLedger recomputes settlement for every order the user participated in,
// then aggregates their reimbursements into the two-sided ledger view.
func (s *service) GetLedger(ctx context.Context, userID uuid.UUID) (*Ledger, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	orderIDs, err := s.repo.ListOrderIDsForParticipant(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing participated orders")
	}
	for _, orderID := range orderIDs {
		if err := s.SyncOrder(ctx, nil, orderID); err != nil {
			// A single inconsistent order must not take down the whole
			// ledger read; surface it in logs and keep aggregating.
			s.logg.Error(s.logg.WithOrderID(ctx, orderID.String()), "settlement sync failed during ledger read", err)
		}
	}

	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing reimbursements")
	}
	return buildLedger(userID, rows), nil
}

// GetReimbursement returns one reimbursement with its parties and order.
// Only the debtor or creditor may read it.
func (s *service) GetReimbursement(ctx context.Context, actingUserID, reimbursementID uuid.UUID) (*models.Reimbursement, error) {
	if actingUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if reimbursementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reimbursement id is required")
	}

	row, err := s.repo.GetDetail(ctx, reimbursementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reimbursement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reimbursement")
	}
	if row.DebtorID != actingUserID && row.CreditorID != actingUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the debtor or creditor may view a reimbursement")
	}
	return row, nil
}

// reimbursementSettledPayload is the data section of the
// reimbursement.settled outbox event.
type reimbursementSettledPayload struct {
	ReimbursementID uuid.UUID       `json:"reimbursement_id"`
	OrderID         uuid.UUID       `json:"order_id"`
	DebtorID        uuid.UUID       `json:"debtor_id"`
	CreditorID      uuid.UUID       `json:"creditor_id"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	SettledAt       time.Time       `json:"settled_at"`
}

// MarkSettled moves one reimbursement out of unpaid. This is the only writer
// allowed to do so, and it never recomputes the amount.
func (s *service) MarkSettled(ctx context.Context, input MarkSettledInput) (*models.Reimbursement, error) {
	if input.ReimbursementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reimbursement id is required")
	}
	if input.ActingUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !input.Status.IsSettled() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be one of paid, completed, settled")
	}

	row, err := s.repo.GetByID(ctx, input.ReimbursementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reimbursement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading reimbursement")
	}

	if row.DebtorID != input.ActingUserID && row.CreditorID != input.ActingUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the debtor or creditor may settle a reimbursement")
	}
	if row.Status.IsSettled() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "reimbursement already marked as paid")
	}

	if input.PaymentMethodID != nil {
		method, err := s.repo.GetPaymentMethod(ctx, *input.PaymentMethodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment method")
		}
		if method.UserID != input.ActingUserID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method does not belong to the acting user")
		}
	}

	settledAt := time.Now()
	if input.SettledAt != nil {
		settledAt = *input.SettledAt
	}

	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updated, err := repo.SettleUnpaid(ctx, row.ID, SettleUpdate{
			Status:               input.Status,
			SettledAt:            settledAt,
			PaymentMethodID:      input.PaymentMethodID,
			TransactionReference: input.TransactionReference,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settling reimbursement")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeConflict, "reimbursement already marked as paid")
		}
		if s.events != nil {
			event := outbox.DomainEvent{
				EventType:     outbox.EventReimbursementSettled,
				AggregateType: outbox.AggregateReimbursement,
				AggregateID:   row.ID,
				Actor:         &outbox.ActorRef{UserID: input.ActingUserID},
				Data: reimbursementSettledPayload{
					ReimbursementID: row.ID,
					OrderID:         row.OrderID,
					DebtorID:        row.DebtorID,
					CreditorID:      row.CreditorID,
					Amount:          row.Amount,
					Status:          input.Status.String(),
					SettledAt:       settledAt,
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing settlement event")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.repo.GetByID(ctx, row.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading reimbursement")
	}
	return result, nil
}

func pairKey(debtorID, creditorID uuid.UUID) string {
	return debtorID.String() + ":" + creditorID.String()
}

