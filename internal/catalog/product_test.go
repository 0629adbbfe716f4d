package catalog

import (
	"encoding/json"
	"testing"
)

func int64Ptr(v int64) *int64 { return &v }

func TestNormalizePriceFallbackChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		product Product
		want    int64
	}{
		{"numeric price wins", Product{NumericPrice: int64Ptr(50000), PriceValue: int64Ptr(99999)}, 50000},
		{"price value fallback", Product{PriceValue: int64Ptr(75000)}, 75000},
		{"absent both is zero", Product{}, 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.product.Normalize().UnitPrice; got != tc.want {
				t.Fatalf("unit price %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNormalizeKeepsDisplayPrice(t *testing.T) {
	t.Parallel()

	product := Product{Name: "Salmon", Price: "50.000 ₫", NumericPrice: int64Ptr(50000)}
	normalized := product.Normalize()
	if normalized.DisplayPrice != "50.000 ₫" {
		t.Fatalf("display price rewritten: %q", normalized.DisplayPrice)
	}
}

func TestNormalizeRendersMissingDisplayPrice(t *testing.T) {
	t.Parallel()

	product := Product{Name: "Tuna", NumericPrice: int64Ptr(75000)}
	if got := product.Normalize().DisplayPrice; got != "75.000 ₫" {
		t.Fatalf("unexpected display price %q", got)
	}
}

func TestNormalizeAcceptsNumericAndStringIDs(t *testing.T) {
	t.Parallel()

	var numeric Product
	if err := json.Unmarshal([]byte(`{"id":7,"name":"Salmon"}`), &numeric); err != nil {
		t.Fatalf("decode numeric id: %v", err)
	}
	if got := numeric.Normalize().ID; got != "7" {
		t.Fatalf("numeric id normalized to %q", got)
	}

	var str Product
	if err := json.Unmarshal([]byte(`{"id":"sku-7","name":"Salmon"}`), &str); err != nil {
		t.Fatalf("decode string id: %v", err)
	}
	if got := str.Normalize().ID; got != "sku-7" {
		t.Fatalf("string id normalized to %q", got)
	}
}
