package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-cart/internal/domain/product"
)

// Key identifies a line for accumulation purposes. Variant attributes are
// part of the key, so the same product in two colors occupies two lines.
type Key struct {
	ProductID string
	Color     string
	Size      string
}

// Line is a single cart entry. The product snapshot is denormalized at
// add time; ID is server-assigned once the line has round-tripped, or a
// locally-assigned temporary ID until then.
type Line struct {
	ID       string
	Product  product.Product
	Quantity int
	Color    string
	Size     string
	AddedAt  time.Time
}

// Key returns the accumulation key for this line.
func (l Line) Key() Key {
	return Key{ProductID: l.Product.ID, Color: l.Color, Size: l.Size}
}

// Subtotal returns unit price times quantity for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Summary is the server-computed cart roll-up. The server is authoritative
// on these numbers when present (coupon and tax-exempt rules apply there).
type Summary struct {
	ItemCount     int
	TotalQuantity int
	Subtotal      decimal.Decimal
}

// Cart holds the ordered lines of a single session's cart. ID is the
// server-side cart document identifier; it is empty for guest carts.
// Summary is nil when the cart has not come from the server.
type Cart struct {
	ID      string
	Lines   []Line
	Summary *Summary
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Clone returns a deep copy. Mutating the clone never affects the original,
// which is what the optimistic snapshot/rollback path relies on.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := &Cart{ID: c.ID}
	if c.Lines != nil {
		cp.Lines = make([]Line, len(c.Lines))
		copy(cp.Lines, c.Lines)
	}
	if c.Summary != nil {
		s := *c.Summary
		cp.Summary = &s
	}
	return cp
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// FindLine returns the index of the line with the given ID.
func (c *Cart) FindLine(id string) (int, bool) {
	for i, l := range c.Lines {
		if l.ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindByKey returns the index of the line matching the accumulation key.
func (c *Cart) FindByKey(k Key) (int, bool) {
	for i, l := range c.Lines {
		if l.Key() == k {
			return i, true
		}
	}
	return -1, false
}

// RemoveLine deletes the line with the given ID, preserving order.
// Removing an absent ID is a no-op.
func (c *Cart) RemoveLine(id string) {
	i, ok := c.FindLine(id)
	if !ok {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// Subtotal sums unit price times quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// TotalQuantity sums quantities over all lines.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// QuantityOf returns the total quantity of the given product across all
// variant lines. Linear scan; carts are small.
func (c *Cart) QuantityOf(productID string) int {
	total := 0
	for _, l := range c.Lines {
		if l.Product.ID == productID {
			total += l.Quantity
		}
	}
	return total
}

// Contains reports whether any line carries the given product.
func (c *Cart) Contains(productID string) bool {
	return c.QuantityOf(productID) > 0
}
