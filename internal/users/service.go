package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/splitbite/splitbite-backend/pkg/db/models"
	"github.com/splitbite/splitbite-backend/pkg/enums"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
)

// Service exposes profile and payment-method operations.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error)
	AddPaymentMethod(ctx context.Context, input AddPaymentMethodInput) (*models.PaymentMethod, error)
}

type service struct {
	repo Repository
}

// NewService wires a users service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

// AddPaymentMethodInput describes a stored settlement instrument. Only the
// last four digits of the account number are retained.
type AddPaymentMethodInput struct {
	UserID        uuid.UUID
	Type          enums.PaymentMethodType
	AccountNumber string
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return user, nil
}

func (s *service) ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	methods, err := s.repo.ListPaymentMethods(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing payment methods")
	}
	return methods, nil
}

func (s *service) AddPaymentMethod(ctx context.Context, input AddPaymentMethodInput) (*models.PaymentMethod, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method type %q", input.Type))
	}
	digits := strings.TrimSpace(input.AccountNumber)
	if len(digits) < 4 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account number is too short")
	}

	method := &models.PaymentMethod{
		UserID:        input.UserID,
		Type:          input.Type,
		AccountNumber: maskAccountNumber(digits),
	}
	if err := s.repo.CreatePaymentMethod(ctx, method); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating payment method")
	}
	return method, nil
}

func maskAccountNumber(value string) string {
	return "****" + value[len(value)-4:]
}
