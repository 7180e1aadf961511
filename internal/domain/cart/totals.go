package cart

import "github.com/shopspring/decimal"

// Shipping and tax rules. Shipping is a flat fee waived once the subtotal
// reaches the free-shipping threshold; tax is a fixed rate on the subtotal.
var (
	flatShipping          = decimal.RequireFromString("5.99")
	freeShippingThreshold = decimal.NewFromInt(99)
	taxRate               = decimal.RequireFromString("0.07")
)

// Totals is the derived view the UI renders. It is never persisted; it is
// always a pure function of the current cart state.
type Totals struct {
	ItemCount     int
	TotalQuantity int
	Subtotal      decimal.Decimal
	Shipping      decimal.Decimal
	Tax           decimal.Decimal
	GrandTotal    decimal.Decimal
}

// DeriveTotals computes the totals for the cart. When the server supplied a
// summary its counts and subtotal are trusted verbatim; otherwise they are
// computed from the lines. Shipping and tax are always computed here; the
// server summary does not carry them.
func DeriveTotals(c *Cart) Totals {
	t := Totals{
		Subtotal: decimal.Zero,
		Shipping: decimal.Zero,
		Tax:      decimal.Zero,
	}
	if c == nil {
		t.GrandTotal = decimal.Zero
		return t
	}

	if c.Summary != nil {
		t.ItemCount = c.Summary.ItemCount
		t.TotalQuantity = c.Summary.TotalQuantity
		t.Subtotal = c.Summary.Subtotal
	} else {
		t.ItemCount = len(c.Lines)
		t.TotalQuantity = c.TotalQuantity()
		t.Subtotal = c.Subtotal()
	}

	if t.Subtotal.IsPositive() && t.Subtotal.LessThan(freeShippingThreshold) {
		t.Shipping = flatShipping
	}
	t.Tax = t.Subtotal.Mul(taxRate).Round(2)
	t.GrandTotal = t.Subtotal.Add(t.Shipping).Add(t.Tax).Round(2)
	return t
}
