package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/internal/settlement"
	"github.com/splitbite/splitbite-backend/pkg/db/models"
	"github.com/splitbite/splitbite-backend/pkg/enums"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
	"github.com/splitbite/splitbite-backend/pkg/outbox"
)

// Service turns a cart into an order atomically.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	runner     TxRunner
	repo       Repository
	settlement settlement.Service
	events     eventEmitter
	logg       *logger.Logger
}

// NewService wires a checkout service.
func NewService(runner TxRunner, repo Repository, settlementSvc settlement.Service, events eventEmitter, logg *logger.Logger) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if settlementSvc == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		runner:     runner,
		repo:       repo,
		settlement: settlementSvc,
		events:     events,
		logg:       logg,
	}, nil
}

// PlaceOrderInput identifies whose cart is being checked out. A nil GroupID
// checks out the acting user's personal cart.
type PlaceOrderInput struct {
	ActingUserID uuid.UUID
	GroupID      *uuid.UUID
}

// PlaceOrderResult is the caller-facing summary of a successful checkout.
type PlaceOrderResult struct {
	OrderID     uuid.UUID       `json:"order_id"`
	PaymentID   uuid.UUID       `json:"payment_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// orderPlacedPayload is the data section of the order.placed outbox event.
type orderPlacedPayload struct {
	OrderID          uuid.UUID       `json:"order_id"`
	RestaurantID     uuid.UUID       `json:"restaurant_id"`
	GroupID          *uuid.UUID      `json:"group_id,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	ParticipantCount int             `json:"participant_count"`
}

// PlaceOrder drains the cart into a new order inside one transaction: the
// cart row is locked, items are snapshotted at current menu prices, the
// payer's payment is recorded, the cart is cleared, and for group orders the
// settlement rows are materialized. Any failure rolls the whole thing back.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if input.ActingUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	if input.GroupID != nil {
		member, err := s.repo.IsGroupMember(ctx, *input.GroupID, input.ActingUserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking group membership")
		}
		if !member {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
		}
	}

	var result *PlaceOrderResult
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.loadCart(ctx, repo, input)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}

		order, err := buildOrder(input, cart.Items)
		if err != nil {
			return err
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}
		if err := repo.ClearCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
		}

		if s.events != nil {
			event := outbox.DomainEvent{
				EventType:     outbox.EventOrderPlaced,
				AggregateType: outbox.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{UserID: input.ActingUserID, GroupID: input.GroupID},
				Data: orderPlacedPayload{
					OrderID:          order.ID,
					RestaurantID:     order.RestaurantID,
					GroupID:          input.GroupID,
					TotalAmount:      order.TotalPrice,
					ParticipantCount: len(order.Participants),
				},
			}
			if err := s.events.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing order event")
			}
		}

		if len(order.Participants) > 1 {
			if err := s.settlement.SyncOrder(ctx, tx, order.ID); err != nil {
				return err
			}
		}

		result = &PlaceOrderResult{
			OrderID:     order.ID,
			PaymentID:   order.Payments[0].ID,
			TotalAmount: order.TotalPrice,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, input.ActingUserID.String()), result.OrderID.String())
	s.logg.Info(logCtx, "order placed")
	return result, nil
}

func (s *service) loadCart(ctx context.Context, repo Repository, input PlaceOrderInput) (*models.Cart, error) {
	var cart *models.Cart
	var err error
	if input.GroupID != nil {
		cart, err = repo.FindGroupCartForUpdate(ctx, *input.GroupID)
	} else {
		cart, err = repo.FindUserCartForUpdate(ctx, input.ActingUserID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return cart, nil
}

// buildOrder snapshots the cart into an order graph: immutable item copies,
// the distinct contributors as participants, and the payer's payment for the
// full total.
func buildOrder(input PlaceOrderInput, items []models.CartItem) (*models.Order, error) {
	total := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(items))
	seen := make(map[uuid.UUID]bool)
	participants := make([]models.OrderParticipant, 0, 4)
	var restaurantID uuid.UUID

	for _, cartItem := range items {
		if cartItem.MenuItem == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart references a menu item that no longer exists")
		}
		menuItem := cartItem.MenuItem
		if restaurantID == uuid.Nil {
			restaurantID = menuItem.RestaurantID
		} else if restaurantID != menuItem.RestaurantID {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart spans multiple restaurants")
		}

		qty := cartItem.Quantity
		if qty <= 0 {
			qty = 1
		}
		total = total.Add(menuItem.Price.Mul(decimal.NewFromInt(int64(qty))))

		menuItemID := menuItem.ID
		orderItems = append(orderItems, models.OrderItem{
			ID:                 uuid.New(),
			MenuItemID:         &menuItemID,
			UserID:             cartItem.UserID,
			NameAtOrder:        menuItem.Name,
			PriceAtOrder:       menuItem.Price,
			DescriptionAtOrder: menuItem.Description,
			ImageURLAtOrder:    menuItem.ImageURL,
			SpecialRequest:     cartItem.SpecialRequest,
			Quantity:           qty,
		})

		if !seen[cartItem.UserID] {
			seen[cartItem.UserID] = true
			participants = append(participants, models.OrderParticipant{ID: uuid.New(), UserID: cartItem.UserID})
		}
	}

	// IDs are assigned here rather than left to the column default so the
	// placement result can echo them without a post-insert reload.
	return &models.Order{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Status:       enums.OrderStatusPending,
		TotalPrice:   total.Round(2),
		Items:        orderItems,
		Participants: participants,
		Payments: []models.Payment{
			{
				ID:     uuid.New(),
				UserID: input.ActingUserID,
				Amount: total.Round(2),
				Status: enums.PaymentStatusPaid,
			},
		},
	}, nil
}
