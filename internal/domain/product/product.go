package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is the catalog snapshot a cart line carries. It is captured at
// add-to-cart time so the line keeps rendering even if the catalog entry
// changes or disappears later.
type Product struct {
	ID    string
	Name  string
	Slug  string
	Price decimal.Decimal
	Image string
}

// Catalog defines read operations against the remote product catalog.
type Catalog interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
}
