package checkout

import (
	"context"
	"io"
	"testing"

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

type passthroughRunner struct{}

func (passthroughRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeCheckoutRepo struct {
	members      map[uuid.UUID]map[uuid.UUID]bool
	userCarts    map[uuid.UUID]*models.Cart
	groupCarts   map[uuid.UUID]*models.Cart
	createdOrder *models.Order
	clearedCart  *uuid.UUID
}

func newFakeCheckoutRepo() *fakeCheckoutRepo {
	return &fakeCheckoutRepo{
		members:    make(map[uuid.UUID]map[uuid.UUID]bool),
		userCarts:  make(map[uuid.UUID]*models.Cart),
		groupCarts: make(map[uuid.UUID]*models.Cart),
	}
}

func (f *fakeCheckoutRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeCheckoutRepo) IsGroupMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	return f.members[groupID][userID], nil
}

func (f *fakeCheckoutRepo) FindUserCartForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, ok := f.userCarts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cart, nil
}

func (f *fakeCheckoutRepo) FindGroupCartForUpdate(ctx context.Context, groupID uuid.UUID) (*models.Cart, error) {
	cart, ok := f.groupCarts[groupID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cart, nil
}

func (f *fakeCheckoutRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	f.createdOrder = order
	return nil
}

func (f *fakeCheckoutRepo) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	f.clearedCart = &cartID
	return nil
}

type fakeSettlement struct {
	synced []uuid.UUID
}

func (f *fakeSettlement) SyncOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	f.synced = append(f.synced, orderID)
	return nil
}

func (f *fakeSettlement) GetLedger(ctx context.Context, userID uuid.UUID) (*settlement.Ledger, error) {
	return nil, nil
}

func (f *fakeSettlement) GetReimbursement(ctx context.Context, actingUserID, reimbursementID uuid.UUID) (*models.Reimbursement, error) {
	return nil, nil
}

func (f *fakeSettlement) MarkSettled(ctx context.Context, input settlement.MarkSettledInput) (*models.Reimbursement, error) {
	return nil, nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func price(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func menuItem(restaurantID uuid.UUID, name, itemPrice string) *models.MenuItem {
	return &models.MenuItem{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Name:         name,
		Price:        price(itemPrice),
		Available:    true,
	}
}

func cartWith(items ...models.CartItem) *models.Cart {
	return &models.Cart{ID: uuid.New(), Items: items}
}

func newCheckoutService(t *testing.T, repo Repository, settle settlement.Service, emitter eventEmitter) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	svc, err := NewService(passthroughRunner{}, repo, settle, emitter, logg)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return svc
}

func TestPlaceOrder_EmptyCartRejected(t *testing.T) {
	repo := newFakeCheckoutRepo()
	user := uuid.New()
	repo.userCarts[user] = cartWith()
	svc := newCheckoutService(t, repo, &fakeSettlement{}, &fakeEmitter{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{ActingUserID: user})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT for empty cart, got %v", err)
	}
	if repo.createdOrder != nil || repo.clearedCart != nil {
		t.Fatal("empty-cart checkout must perform no writes")
	}
}

func TestPlaceOrder_MissingCartRejected(t *testing.T) {
	repo := newFakeCheckoutRepo()
	svc := newCheckoutService(t, repo, &fakeSettlement{}, &fakeEmitter{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{ActingUserID: uuid.New()})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT when no cart exists, got %v", err)
	}
}

func TestPlaceOrder_NonMemberForbidden(t *testing.T) {
	repo := newFakeCheckoutRepo()
	groupID := uuid.New()
	svc := newCheckoutService(t, repo, &fakeSettlement{}, &fakeEmitter{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		ActingUserID: uuid.New(),
		GroupID:      &groupID,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for non-member, got %v", err)
	}
}

func TestPlaceOrder_SnapshotsItemsAndTotals(t *testing.T) {
	repo := newFakeCheckoutRepo()
	restaurantID := uuid.New()
	user := uuid.New()
	burger := menuItem(restaurantID, "Burger", "9.50")
	fries := menuItem(restaurantID, "Fries", "3.25")
	repo.userCarts[user] = cartWith(
		models.CartItem{UserID: user, MenuItem: burger, Quantity: 2},
		models.CartItem{UserID: user, MenuItem: fries, Quantity: 1},
	)
	settle := &fakeSettlement{}
	emitter := &fakeEmitter{}
	svc := newCheckoutService(t, repo, settle, emitter)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{ActingUserID: user})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}
	if !result.TotalAmount.Equal(price("22.25")) {
		t.Fatalf("expected total 22.25, got %s", result.TotalAmount)
	}

	order := repo.createdOrder
	if order == nil {
		t.Fatal("order not created")
	}
	if order.RestaurantID != restaurantID {
		t.Fatalf("restaurant not derived from cart items: %s", order.RestaurantID)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("orders must start pending, got %s", order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 snapshot items, got %d", len(order.Items))
	}
	if order.Items[0].NameAtOrder != "Burger" || !order.Items[0].PriceAtOrder.Equal(price("9.50")) {
		t.Fatalf("snapshot lost menu data: %+v", order.Items[0])
	}
	if len(order.Participants) != 1 {
		t.Fatalf("expected one distinct participant, got %d", len(order.Participants))
	}
	if len(order.Payments) != 1 || !order.Payments[0].Amount.Equal(price("22.25")) {
		t.Fatalf("payer payment missing or wrong: %+v", order.Payments)
	}
	if order.Payments[0].Status != enums.PaymentStatusPaid {
		t.Fatalf("payment must be recorded as paid, got %s", order.Payments[0].Status)
	}

	if repo.clearedCart == nil {
		t.Fatal("cart not cleared")
	}
	if len(settle.synced) != 0 {
		t.Fatal("solo orders must not trigger settlement")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != outbox.EventOrderPlaced {
		t.Fatalf("expected one order.placed event, got %+v", emitter.events)
	}
}

func TestPlaceOrder_GroupOrderTriggersSettlement(t *testing.T) {
	repo := newFakeCheckoutRepo()
	restaurantID := uuid.New()
	groupID := uuid.New()
	payer := uuid.New()
	friend := uuid.New()
	repo.members[groupID] = map[uuid.UUID]bool{payer: true, friend: true}
	repo.groupCarts[groupID] = cartWith(
		models.CartItem{UserID: payer, MenuItem: menuItem(restaurantID, "Ramen", "12.00"), Quantity: 1},
		models.CartItem{UserID: friend, MenuItem: menuItem(restaurantID, "Gyoza", "6.00"), Quantity: 1},
		models.CartItem{UserID: friend, MenuItem: menuItem(restaurantID, "Tea", "2.00"), Quantity: 1},
	)
	settle := &fakeSettlement{}
	svc := newCheckoutService(t, repo, settle, &fakeEmitter{})

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		ActingUserID: payer,
		GroupID:      &groupID,
	})
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}
	if !result.TotalAmount.Equal(price("20.00")) {
		t.Fatalf("expected total 20.00, got %s", result.TotalAmount)
	}
	if len(repo.createdOrder.Participants) != 2 {
		t.Fatalf("expected 2 distinct participants, got %d", len(repo.createdOrder.Participants))
	}
	if len(settle.synced) != 1 || settle.synced[0] != repo.createdOrder.ID {
		t.Fatalf("group orders must sync settlement for the new order, got %+v", settle.synced)
	}
}

func TestPlaceOrder_MixedRestaurantCartRejected(t *testing.T) {
	repo := newFakeCheckoutRepo()
	user := uuid.New()
	repo.userCarts[user] = cartWith(
		models.CartItem{UserID: user, MenuItem: menuItem(uuid.New(), "Pizza", "11.00"), Quantity: 1},
		models.CartItem{UserID: user, MenuItem: menuItem(uuid.New(), "Sushi", "14.00"), Quantity: 1},
	)
	svc := newCheckoutService(t, repo, &fakeSettlement{}, &fakeEmitter{})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{ActingUserID: user})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT for mixed-restaurant cart, got %v", err)
	}
}
