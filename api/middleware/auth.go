package middleware

import (
	"net/http"
	"strings"

	"github.com/harborline/storefront-backend/api/responses"
	pkgAuth "github.com/harborline/storefront-backend/pkg/auth"
	"github.com/harborline/storefront-backend/pkg/config"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/types"
)

// sessionKeyHeader identifies an anonymous shopper's basket.
const sessionKeyHeader = "X-Session-Key"

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

// Auth validates a bearer token and seeds the request context with the
// actor. The session key header is captured too so checkout can adopt
// an anonymous basket.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if key := strings.TrimSpace(r.Header.Get(sessionKeyHeader)); key != "" {
				ctx = WithSessionKey(ctx, key)
			}

			token := bearerToken(r)
			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := claims.Actor()
			ctx = WithActor(ctx, actor)
			if logg != nil {
				ctx = logg.WithCustomerID(ctx, actor.CustomerID.String())
				ctx = logg.WithActorRole(ctx, string(actor.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth parses a bearer token when present but lets anonymous
// requests through. The session key header is captured either way so
// cart endpoints can serve anonymous baskets.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if key := strings.TrimSpace(r.Header.Get(sessionKeyHeader)); key != "" {
				ctx = WithSessionKey(ctx, key)
			}

			if token := bearerToken(r); token != "" {
				claims, err := pkgAuth.ParseAccessToken(cfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				actor := claims.Actor()
				ctx = WithActor(ctx, actor)
				if logg != nil {
					ctx = logg.WithCustomerID(ctx, actor.CustomerID.String())
					ctx = logg.WithActorRole(ctx, string(actor.Role))
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff rejects non-staff actors. It must run after Auth.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if actor.Role != types.RoleStaff {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
