package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/harborline/storefront-backend/api/responses"
	"github.com/harborline/storefront-backend/api/validators"
	"github.com/harborline/storefront-backend/internal/coupons"
	"github.com/harborline/storefront-backend/pkg/logger"
)

func ValidateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input struct {
			Subtotal decimal.Decimal `json:"subtotal" validate:"required"`
		}
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ValidateCode(ctx, chi.URLParam(r, "code"), input.Subtotal)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
