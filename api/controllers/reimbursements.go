package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/splitbite/splitbite-backend/api/responses"
	"github.com/splitbite/splitbite-backend/api/validators"
	settlementsvc "github.com/splitbite/splitbite-backend/internal/settlement"
	"github.com/splitbite/splitbite-backend/pkg/enums"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
)

type settleReimbursementRequest struct {
	Status               string     `json:"status" validate:"required"`
	SettledAt            *time.Time `json:"settled_at,omitempty"`
	PaymentMethodID      *uuid.UUID `json:"payment_method_id,omitempty"`
	TransactionReference *string    `json:"transaction_reference,omitempty" validate:"omitempty,max=200"`
}

// GetLedger returns the caller's aggregated who-owes-whom view. Amounts are
// recomputed from live order data before aggregation.
func GetLedger(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ledger, err := svc.GetLedger(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ledger)
	}
}

// GetReimbursement returns one ledger entry with its parties and order.
// Only the debtor or creditor may read it.
func GetReimbursement(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reimbursementID, err := uuidParam(r, "reimbursementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reimbursement, err := svc.GetReimbursement(r.Context(), uid, reimbursementID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reimbursement)
	}
}

func SettleReimbursement(svc settlementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reimbursementID, err := uuidParam(r, "reimbursementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload settleReimbursementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseSettlementTarget(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		reimbursement, err := svc.MarkSettled(r.Context(), settlementsvc.MarkSettledInput{
			ReimbursementID:      reimbursementID,
			ActingUserID:         uid,
			Status:               status,
			SettledAt:            payload.SettledAt,
			PaymentMethodID:      payload.PaymentMethodID,
			TransactionReference: payload.TransactionReference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reimbursement)
	}
}
