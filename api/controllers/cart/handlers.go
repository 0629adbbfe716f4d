package cart

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harborfresh/storefront-backend/api/responses"
	"github.com/harborfresh/storefront-backend/api/validators"
	cartsvc "github.com/harborfresh/storefront-backend/internal/cart"
	"github.com/harborfresh/storefront-backend/internal/catalog"
	"github.com/harborfresh/storefront-backend/pkg/currency"
	pkgerrors "github.com/harborfresh/storefront-backend/pkg/errors"
	"github.com/harborfresh/storefront-backend/pkg/logger"
)

type addItemRequest struct {
	ID           json.Number `json:"id" validate:"required"`
	Name         string      `json:"name" validate:"required"`
	Price        string      `json:"price,omitempty"`
	NumericPrice *int64      `json:"numericPrice,omitempty"`
	PriceValue   *int64      `json:"priceValue,omitempty"`
}

type cartView struct {
	Items        []cartsvc.Line `json:"items"`
	TotalCount   int64          `json:"totalCount"`
	TotalPrice   int64          `json:"totalPrice"`
	TotalDisplay string         `json:"totalDisplay"`
}

func newCartView(store *cartsvc.Store) cartView {
	total := store.TotalPrice()
	return cartView{
		Items:        store.Items(),
		TotalCount:   store.TotalCount(),
		TotalPrice:   total,
		TotalDisplay: currency.FormatVND(total),
	}
}

// CartFetch returns the current cart with its totals.
func CartFetch(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartAdd merges one unit of the posted product into the cart.
func CartAdd(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product := catalog.Product{
			ID:           payload.ID,
			Name:         payload.Name,
			Price:        payload.Price,
			NumericPrice: payload.NumericPrice,
			PriceValue:   payload.PriceValue,
		}
		store.AddToCart(r.Context(), product.Normalize())

		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartRemoveOne decrements the quantity of the item in the path.
func CartRemoveOne(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		id := chi.URLParam(r, "itemId")
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}
		store.RemoveOne(r.Context(), id)

		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartRemoveItem drops the whole line for the item in the path.
func CartRemoveItem(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		id := chi.URLParam(r, "itemId")
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}
		store.RemoveItemCompletely(r.Context(), id)

		responses.WriteSuccess(w, newCartView(store))
	}
}

// CartClear empties the cart.
func CartClear(store *cartsvc.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		store.ClearCart(r.Context())
		responses.WriteSuccess(w, newCartView(store))
	}
}
