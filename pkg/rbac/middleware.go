package rbac

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/slovar/slovar/pkg/auth"
	"github.com/slovar/slovar/pkg/httputil"
)

// RequirePermission gates a handler behind a single permission. The identity
// (if any) must already have been placed in the request context by
// auth.Middleware. Anonymous callers lacking a blanket grant receive 401;
// authenticated callers with insufficient rights receive 403. Authorization
// failures never surface as 500s.
func RequirePermission(resolver *Resolver, permission Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID *uuid.UUID
			if identity := auth.IdentityFromContext(r.Context()); identity != nil {
				userID = &identity.UserID
			}

			err := resolver.Authorize(r.Context(), userID, permission)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			var missing *MissingPermissionError
			switch {
			case errors.Is(err, ErrNotAuthenticated):
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, "authentication required")
			case errors.As(err, &missing):
				httputil.WriteErrorMessage(w, http.StatusForbidden,
					"missing permission "+missing.Permission.Name())
			default:
				httputil.WriteErrorMessage(w, http.StatusInternalServerError, "authorization check failed")
			}
		})
	}
}
