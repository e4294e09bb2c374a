package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	"github.com/splitbite/splitbite-backend/pkg/enums"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
	"github.com/splitbite/splitbite-backend/pkg/outbox"
)

// Service exposes order reads plus the restaurant-owner status transition.
type Service interface {
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListForRestaurant(ctx context.Context, actingUserID, restaurantID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, actingUserID, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	runner TxRunner
	repo   Repository
	events eventEmitter
	logg   *logger.Logger
}

// NewService wires an orders service.
func NewService(runner TxRunner, repo Repository, events eventEmitter, logg *logger.Logger) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{runner: runner, repo: repo, events: events, logg: logg}, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rows, err := s.repo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return rows, nil
}

func (s *service) ListForRestaurant(ctx context.Context, actingUserID, restaurantID uuid.UUID) ([]models.Order, error) {
	if actingUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	restaurant, err := s.repo.GetRestaurant(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading restaurant")
	}
	if restaurant.OwnerID != actingUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the restaurant owner may view its orders")
	}
	rows, err := s.repo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing restaurant orders")
	}
	return rows, nil
}

// statusChangedPayload is the data section of the order.status_changed event.
type statusChangedPayload struct {
	OrderID uuid.UUID `json:"order_id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
}

// UpdateStatus moves an order along its lifecycle. Only the owning
// restaurant's user may do this, and terminal states reject further moves.
func (s *service) UpdateStatus(ctx context.Context, actingUserID, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if actingUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.Restaurant == nil || order.Restaurant.OwnerID != actingUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the restaurant owner may update order status")
	}
	if !canTransition(order.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	previous := order.Status
	err = s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateStatus(ctx, orderID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
		}
		if s.events != nil {
			event := outbox.DomainEvent{
				EventType:     outbox.EventOrderStatusChanged,
				AggregateType: outbox.AggregateOrder,
				AggregateID:   orderID,
				Actor:         &outbox.ActorRef{UserID: actingUserID},
				Data: statusChangedPayload{
					OrderID: orderID,
					From:    previous.String(),
					To:      status.String(),
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing status event")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = status
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Info(s.logg.WithField(logCtx, "status", status.String()), "order status updated")
	return order, nil
}

// canTransition encodes the order lifecycle: pending moves forward to
// ready_for_pickup or cancelled, ready_for_pickup to picked_up. Terminal
// states accept nothing.
func canTransition(from, to enums.OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	switch from {
	case enums.OrderStatusPending:
		return to == enums.OrderStatusReadyForPickup || to == enums.OrderStatusCancelled
	case enums.OrderStatusReadyForPickup:
		return to == enums.OrderStatusPickedUp || to == enums.OrderStatusCancelled
	default:
		return false
	}
}
