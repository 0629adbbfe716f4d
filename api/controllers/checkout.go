package controllers

import (
	"net/http"

	"github.com/harborfresh/storefront-backend/api/responses"
	"github.com/harborfresh/storefront-backend/api/validators"
	checkoutsvc "github.com/harborfresh/storefront-backend/internal/checkout"
	"github.com/harborfresh/storefront-backend/pkg/logger"
)

type checkoutRequest struct {
	OrderInfo string `json:"orderInfo,omitempty"`
}

// Checkout creates a payment for the cart total and records the order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.Checkout(r.Context(), payload.OrderInfo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
