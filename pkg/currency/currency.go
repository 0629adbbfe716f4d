// Package currency formats Vietnamese dong amounts for display. Cart and
// checkout math stays on integer amounts; these helpers are presentation only.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

const symbol = "₫"

// FormatVND renders an amount as a vi-VN currency string, e.g. "50.000 ₫".
func FormatVND(amount int64) string {
	return groupDigits(decimal.NewFromInt(amount)) + " " + symbol
}

func groupDigits(d decimal.Decimal) string {
	s := d.Truncate(0).String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
