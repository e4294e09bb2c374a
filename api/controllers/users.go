package controllers

import (
	"net/http"

	"github.com/splitbite/splitbite-backend/api/responses"
	"github.com/splitbite/splitbite-backend/api/validators"
	usersvc "github.com/splitbite/splitbite-backend/internal/users"
	"github.com/splitbite/splitbite-backend/pkg/enums"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
)

type addPaymentMethodRequest struct {
	Type          string `json:"type" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required,min=4,max=34"`
}

func GetProfile(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.GetProfile(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}

func ListPaymentMethods(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methods, err := svc.ListPaymentMethods(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, methods)
	}
}

func AddPaymentMethod(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addPaymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methodType, err := enums.ParsePaymentMethodType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type"))
			return
		}

		method, err := svc.AddPaymentMethod(r.Context(), usersvc.AddPaymentMethodInput{
			UserID:        uid,
			Type:          methodType,
			AccountNumber: payload.AccountNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, method)
	}
}
