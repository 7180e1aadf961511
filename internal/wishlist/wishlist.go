// Package wishlist holds the locally persisted wishlist. It is independent
// of the cart; the cart's move-to-wishlist flow treats inserts here as
// best-effort.
package wishlist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-cart/internal/domain/product"
	"github.com/xenking/storefront-cart/internal/localstore"
)

// Entry is a saved product with its chosen variant.
type Entry struct {
	Product product.Product
	Color   string
	Size    string
	AddedAt time.Time
}

// List is a wishlist persisted through a localstore.Store.
type List struct {
	mu    sync.Mutex
	store localstore.Store
}

// New returns a wishlist over the given store.
func New(store localstore.Store) *List {
	return &List{store: store}
}

// Add inserts an entry unless the same product and variant is already
// present, then persists the list.
func (l *List) Add(ctx context.Context, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return err
	}
	for _, existing := range entries {
		if existing.Product.ID == e.Product.ID && existing.Color == e.Color && existing.Size == e.Size {
			return nil
		}
	}
	if e.AddedAt.IsZero() {
		e.AddedAt = time.Now()
	}
	return l.save(ctx, append(entries, e))
}

// Remove deletes every entry for the given product. Removing an absent
// product is a no-op.
func (l *List) Remove(ctx context.Context, productID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Product.ID != productID {
			kept = append(kept, e)
		}
	}
	return l.save(ctx, kept)
}

// Items returns the current entries.
func (l *List) Items(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

func (l *List) load(ctx context.Context) ([]Entry, error) {
	raw, err := l.store.Get(ctx, localstore.KeyWishlist)
	if err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load wishlist")
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Malformed state reads as empty, same policy as stored carts.
		_ = l.store.Delete(ctx, localstore.KeyWishlist)
		return nil, nil
	}
	return entries, nil
}

func (l *List) save(ctx context.Context, entries []Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "marshal wishlist")
	}
	if err := l.store.Set(ctx, localstore.KeyWishlist, raw); err != nil {
		return errors.Wrap(err, "save wishlist")
	}
	return nil
}
