package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	"github.com/splitbite/splitbite-backend/pkg/enums"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
)

type fakeUsersRepo struct {
	users   map[uuid.UUID]*models.User
	methods []models.PaymentMethod
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUsersRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsersRepo) ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	for _, method := range f.methods {
		if method.UserID == userID {
			out = append(out, method)
		}
	}
	return out, nil
}

func (f *fakeUsersRepo) CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}
	f.methods = append(f.methods, *method)
	return nil
}

func TestGetProfile(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	user := &models.User{Name: "Ada", Email: "ada@example.com"}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	got, err := svc.GetProfile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got.Email != "ada@example.com" {
		t.Fatalf("unexpected email %q", got.Email)
	}

	_, err = svc.GetProfile(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddPaymentMethod_MasksAccountNumber(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	userID := uuid.New()

	method, err := svc.AddPaymentMethod(context.Background(), AddPaymentMethodInput{
		UserID:        userID,
		Type:          enums.PaymentMethodTypeCard,
		AccountNumber: "4242424242424242",
	})
	if err != nil {
		t.Fatalf("add payment method: %v", err)
	}
	if method.AccountNumber != "****4242" {
		t.Fatalf("account number not masked: %q", method.AccountNumber)
	}

	methods, err := svc.ListPaymentMethods(context.Background(), userID)
	if err != nil {
		t.Fatalf("list payment methods: %v", err)
	}
	if len(methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(methods))
	}
}

func TestAddPaymentMethod_Validation(t *testing.T) {
	svc, err := NewService(newFakeUsersRepo())
	if err != nil {
		t.Fatalf("building service: %v", err)
	}

	_, err = svc.AddPaymentMethod(context.Background(), AddPaymentMethodInput{
		UserID:        uuid.New(),
		Type:          "crypto",
		AccountNumber: "4242424242424242",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown type, got %v", err)
	}

	_, err = svc.AddPaymentMethod(context.Background(), AddPaymentMethodInput{
		UserID:        uuid.New(),
		Type:          enums.PaymentMethodTypeCard,
		AccountNumber: "42",
	})
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for short number, got %v", err)
	}
}
