package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harborline/storefront-backend/api/middleware"
	"github.com/harborline/storefront-backend/api/responses"
	"github.com/harborline/storefront-backend/api/validators"
	"github.com/harborline/storefront-backend/internal/cart"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
)

// cartOwner resolves the basket owner: the authenticated customer when
// present, the session key header otherwise.
func cartOwner(r *http.Request) (cart.Owner, error) {
	ctx := r.Context()
	if actor, ok := middleware.ActorFromContext(ctx); ok {
		customerID := actor.CustomerID
		return cart.Owner{CustomerID: &customerID}, nil
	}
	if key := middleware.SessionKeyFromContext(ctx); key != "" {
		return cart.Owner{SessionKey: key}, nil
	}
	return cart.Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "authentication or X-Session-Key header is required")
}

func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		basket, err := svc.GetCart(ctx, owner)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, basket)
	}
}

func AddCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input cart.AddItemInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		basket, err := svc.AddItem(ctx, owner, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, basket)
	}
}

func UpdateCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		itemID, err := validators.PathUUID(chi.URLParam(r, "itemId"), "item id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var input struct {
			Quantity int `json:"quantity" validate:"gte=0"`
		}
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		basket, err := svc.UpdateItem(ctx, owner, itemID, input.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, basket)
	}
}

func RemoveCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		itemID, err := validators.PathUUID(chi.URLParam(r, "itemId"), "item id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		basket, err := svc.RemoveItem(ctx, owner, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, basket)
	}
}

func ClearCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Clear(ctx, owner); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
