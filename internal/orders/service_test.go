package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

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

type fakeOrdersRepo struct {
	orders        map[uuid.UUID]*models.Order
	restaurants   map[uuid.UUID]*models.Restaurant
	statusUpdates []enums.OrderStatus
}

func newFakeOrdersRepo() *fakeOrdersRepo {
	return &fakeOrdersRepo{
		orders:      make(map[uuid.UUID]*models.Order),
		restaurants: make(map[uuid.UUID]*models.Restaurant),
	}
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrdersRepo) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrdersRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.RestaurantID == restaurantID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrdersRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrdersRepo) GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, ok := f.restaurants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return restaurant, nil
}

func (f *fakeOrdersRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	f.orders[orderID].Status = status
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (r *recordingEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

func newOrdersService(t *testing.T, repo Repository, emitter eventEmitter) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(passthroughRunner{}, repo, emitter, logg)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return svc
}

func seedOrder(repo *fakeOrdersRepo, status enums.OrderStatus) (orderID, ownerID uuid.UUID) {
	orderID = uuid.New()
	ownerID = uuid.New()
	restaurantID := uuid.New()
	repo.restaurants[restaurantID] = &models.Restaurant{ID: restaurantID, OwnerID: ownerID}
	repo.orders[orderID] = &models.Order{
		ID:           orderID,
		RestaurantID: restaurantID,
		Status:       status,
		Restaurant:   repo.restaurants[restaurantID],
	}
	return orderID, ownerID
}

func TestUpdateStatus_OwnerMovesOrderForward(t *testing.T) {
	repo := newFakeOrdersRepo()
	orderID, ownerID := seedOrder(repo, enums.OrderStatusPending)
	emitter := &recordingEmitter{}
	svc := newOrdersService(t, repo, emitter)

	updated, err := svc.UpdateStatus(context.Background(), ownerID, orderID, enums.OrderStatusReadyForPickup)
	if err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if updated.Status != enums.OrderStatusReadyForPickup {
		t.Fatalf("expected ready_for_pickup, got %s", updated.Status)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != outbox.EventOrderStatusChanged {
		t.Fatalf("expected a status change event, got %+v", emitter.events)
	}
}

func TestUpdateStatus_NonOwnerForbidden(t *testing.T) {
	repo := newFakeOrdersRepo()
	orderID, _ := seedOrder(repo, enums.OrderStatusPending)
	svc := newOrdersService(t, repo, nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), orderID, enums.OrderStatusReadyForPickup)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	if len(repo.statusUpdates) != 0 {
		t.Fatal("forbidden call must not write")
	}
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	repo := newFakeOrdersRepo()
	svc := newOrdersService(t, repo, nil)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), enums.OrderStatusCancelled)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdateStatus_InvalidEnumRejected(t *testing.T) {
	repo := newFakeOrdersRepo()
	orderID, ownerID := seedOrder(repo, enums.OrderStatusPending)
	svc := newOrdersService(t, repo, nil)

	_, err := svc.UpdateStatus(context.Background(), ownerID, orderID, enums.OrderStatus("delivered"))
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestUpdateStatus_TerminalStatesReject(t *testing.T) {
	for _, terminal := range []enums.OrderStatus{enums.OrderStatusPickedUp, enums.OrderStatusCancelled} {
		repo := newFakeOrdersRepo()
		orderID, ownerID := seedOrder(repo, terminal)
		svc := newOrdersService(t, repo, nil)

		_, err := svc.UpdateStatus(context.Background(), ownerID, orderID, enums.OrderStatusPending)
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("expected STATE_CONFLICT from %s, got %v", terminal, err)
		}
	}
}

func TestUpdateStatus_SkippingAheadRejected(t *testing.T) {
	repo := newFakeOrdersRepo()
	orderID, ownerID := seedOrder(repo, enums.OrderStatusPending)
	svc := newOrdersService(t, repo, nil)

	_, err := svc.UpdateStatus(context.Background(), ownerID, orderID, enums.OrderStatusPickedUp)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT for pending to picked_up, got %v", err)
	}
}

func TestListForRestaurant_OwnerGate(t *testing.T) {
	repo := newFakeOrdersRepo()
	orderID, ownerID := seedOrder(repo, enums.OrderStatusPending)
	svc := newOrdersService(t, repo, nil)
	restaurantID := repo.orders[orderID].RestaurantID

	rows, err := svc.ListForRestaurant(context.Background(), ownerID, restaurantID)
	if err != nil {
		t.Fatalf("ListForRestaurant error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one order, got %d", len(rows))
	}

	_, err = svc.ListForRestaurant(context.Background(), uuid.New(), restaurantID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for non-owner, got %v", err)
	}
}
