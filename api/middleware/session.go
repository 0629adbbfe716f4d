package middleware

import (
	"context"
	"net/http"

	"github.com/harborfresh/storefront-backend/api/responses"
	pkgerrors "github.com/harborfresh/storefront-backend/pkg/errors"
	"github.com/harborfresh/storefront-backend/pkg/logger"
)

type sessionChecker interface {
	SessionPresent(ctx context.Context) bool
}

// RequireSession rejects requests when no usable session token is stored.
func RequireSession(checker sessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if checker == nil || !checker.SessionPresent(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
