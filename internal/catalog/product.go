package catalog

import (
	"encoding/json"

	"github.com/harborfresh/storefront-backend/internal/cart"
	"github.com/harborfresh/storefront-backend/pkg/currency"
)

// Product is the loosely typed shape the catalog feed delivers. Ids arrive as
// numbers or strings, prices as a pre-formatted display string, a numeric
// amount, or both.
type Product struct {
	ID           json.Number `json:"id"`
	Name         string      `json:"name"`
	Price        string      `json:"price,omitempty"`
	NumericPrice *int64      `json:"numericPrice,omitempty"`
	PriceValue   *int64      `json:"priceValue,omitempty"`
}

// Normalize resolves the feed's optional price fields into the cart's product
// shape. NumericPrice wins over PriceValue; absent both, the amount is zero.
// A missing display string is rendered from the numeric amount.
func (p Product) Normalize() cart.Product {
	var amount int64
	switch {
	case p.NumericPrice != nil:
		amount = *p.NumericPrice
	case p.PriceValue != nil:
		amount = *p.PriceValue
	}

	display := p.Price
	if display == "" {
		display = currency.FormatVND(amount)
	}

	return cart.Product{
		ID:           p.ID.String(),
		Name:         p.Name,
		UnitPrice:    amount,
		DisplayPrice: display,
	}
}
