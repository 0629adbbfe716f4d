package orders

import (
	"net/http"

	"github.com/harborfresh/storefront-backend/api/responses"
	ordersvc "github.com/harborfresh/storefront-backend/internal/orders"
	"github.com/harborfresh/storefront-backend/pkg/logger"
)

// List returns the shopper's order history, newest first.
func List(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}
