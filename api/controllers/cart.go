package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/splitbite/splitbite-backend/api/responses"
	"github.com/splitbite/splitbite-backend/api/validators"
	cartsvc "github.com/splitbite/splitbite-backend/internal/cart"
	checkoutsvc "github.com/splitbite/splitbite-backend/internal/checkout"
	"github.com/splitbite/splitbite-backend/pkg/logger"
)

type addCartItemRequest struct {
	MenuItemID     uuid.UUID `json:"menu_item_id" validate:"required"`
	Quantity       int       `json:"quantity" validate:"required,min=1,max=50"`
	SpecialRequest *string   `json:"special_request,omitempty" validate:"omitempty,max=500"`
}

func GetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := groupIDQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.GetCart(r.Context(), uid, groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart)
	}
}

func AddCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := groupIDQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), cartsvc.AddItemInput{
			ActingUserID:   uid,
			GroupID:        groupID,
			MenuItemID:     payload.MenuItemID,
			Quantity:       payload.Quantity,
			SpecialRequest: payload.SpecialRequest,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func RemoveCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := groupIDQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), uid, groupID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// Checkout converts the cart into an order in a single transaction. For
// group carts this also seeds the reimbursement ledger.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := groupIDQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(r.Context(), checkoutsvc.PlaceOrderInput{
			ActingUserID: uid,
			GroupID:      groupID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
