package controllers

import (
	"net/http"

	"github.com/harborline/storefront-backend/api/middleware"
	"github.com/harborline/storefront-backend/api/responses"
	"github.com/harborline/storefront-backend/api/validators"
	"github.com/harborline/storefront-backend/internal/accounts"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
)

func AuthRegister(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input accounts.RegisterInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.SessionKey = middleware.SessionKeyFromContext(ctx)

		result, err := svc.Register(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func AuthLogin(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input accounts.LoginInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.SessionKey = middleware.SessionKeyFromContext(ctx)

		result, err := svc.Login(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AuthMe(svc accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		me, err := svc.Me(ctx, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, me)
	}
}
