package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/splitbite/splitbite-backend/api/responses"
	"github.com/splitbite/splitbite-backend/api/validators"
	restaurantsvc "github.com/splitbite/splitbite-backend/internal/restaurants"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
)

type createRestaurantRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=160"`
	Description *string `json:"description,omitempty"`
	LogoURL     *string `json:"logo_url,omitempty" validate:"omitempty,url"`
}

type addMenuItemRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=160"`
	Description *string `json:"description,omitempty"`
	Price       string  `json:"price" validate:"required"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

type setAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

func ListRestaurants(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func GetRestaurant(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "restaurantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		restaurant, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, restaurant)
	}
}

func CreateRestaurant(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createRestaurantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		restaurant, err := svc.Create(r.Context(), restaurantsvc.CreateRestaurantInput{
			OwnerID:     uid,
			Name:        payload.Name,
			Description: payload.Description,
			LogoURL:     payload.LogoURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, restaurant)
	}
}

func AddMenuItem(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		restaurantID, err := uuidParam(r, "restaurantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addMenuItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := decimal.NewFromString(payload.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
			return
		}

		item, err := svc.AddMenuItem(r.Context(), restaurantsvc.AddMenuItemInput{
			ActingUserID: uid,
			RestaurantID: restaurantID,
			Name:         payload.Name,
			Description:  payload.Description,
			Price:        price,
			ImageURL:     payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func SetMenuItemAvailability(svc restaurantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		restaurantID, err := uuidParam(r, "restaurantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetMenuItemAvailability(r.Context(), uid, restaurantID, itemID, *payload.Available); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"available": *payload.Available})
	}
}
