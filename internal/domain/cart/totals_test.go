package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/storefront-cart/internal/domain/product"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func line(id string, price string, qty int) Line {
	return Line{
		ID:       id,
		Product:  product.Product{ID: "prod-" + id, Name: "P", Price: d(price)},
		Quantity: qty,
	}
}

func TestDeriveTotals(t *testing.T) {
	tests := []struct {
		name         string
		cart         *Cart
		wantSubtotal decimal.Decimal
		wantShipping decimal.Decimal
		wantTax      decimal.Decimal
		wantTotal    decimal.Decimal
	}{
		{
			name:         "below free shipping threshold",
			cart:         &Cart{Lines: []Line{line("l1", "25", 2)}},
			wantSubtotal: d("50"),
			wantShipping: d("5.99"),
			wantTax:      d("3.5"),
			wantTotal:    d("59.49"),
		},
		{
			name:         "above free shipping threshold",
			cart:         &Cart{Lines: []Line{line("l1", "75", 2)}},
			wantSubtotal: d("150"),
			wantShipping: d("0"),
			wantTax:      d("10.5"),
			wantTotal:    d("160.5"),
		},
		{
			name:         "exactly at threshold ships free",
			cart:         &Cart{Lines: []Line{line("l1", "99", 1)}},
			wantSubtotal: d("99"),
			wantShipping: d("0"),
			wantTax:      d("6.93"),
			wantTotal:    d("105.93"),
		},
		{
			name:         "empty cart has zero totals",
			cart:         &Cart{},
			wantSubtotal: d("0"),
			wantShipping: d("0"),
			wantTax:      d("0"),
			wantTotal:    d("0"),
		},
		{
			name: "server summary subtotal trusted verbatim",
			cart: &Cart{
				Lines: []Line{line("l1", "25", 2)},
				// Discounted server-side; local line math would say 50.
				Summary: &Summary{ItemCount: 1, TotalQuantity: 2, Subtotal: d("45")},
			},
			wantSubtotal: d("45"),
			wantShipping: d("5.99"),
			wantTax:      d("3.15"),
			wantTotal:    d("54.14"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTotals(tt.cart)
			assert.True(t, got.Subtotal.Equal(tt.wantSubtotal), "subtotal: got %s", got.Subtotal)
			assert.True(t, got.Shipping.Equal(tt.wantShipping), "shipping: got %s", got.Shipping)
			assert.True(t, got.Tax.Equal(tt.wantTax), "tax: got %s", got.Tax)
			assert.True(t, got.GrandTotal.Equal(tt.wantTotal), "grand total: got %s", got.GrandTotal)
		})
	}
}

func TestDeriveTotalsCounts(t *testing.T) {
	c := &Cart{Lines: []Line{line("l1", "10", 2), line("l2", "5", 3)}}

	got := DeriveTotals(c)
	assert.Equal(t, 2, got.ItemCount)
	assert.Equal(t, 5, got.TotalQuantity)
}
