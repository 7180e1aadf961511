// Package localstore is the durable client-side key-value store, the
// counterpart of the browser's localStorage. Guest carts, the
// authenticated-cart backup snapshot, and the wishlist live here.
package localstore

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-cart/internal/domain/cart"
)

// Well-known storage keys.
const (
	// KeyGuestCart holds the serialized guest cart while unauthenticated.
	KeyGuestCart = "storefront.cart.guest"
	// KeyAuthBackup retains the last known authenticated cart snapshot,
	// for resilience against transient 401 responses.
	KeyAuthBackup = "storefront.cart.backup"
	// KeyWishlist holds the serialized wishlist.
	KeyWishlist = "storefront.wishlist"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("localstore: key not found")

// Store is a durable key-value store for serialized client state.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LoadCart reads and deserializes a cart from the given key. A missing key
// yields (nil, nil). Malformed JSON is treated as "no cart": the entry is
// cleared and (nil, nil) is returned, not an error.
func LoadCart(ctx context.Context, s Store, key string) (*cart.Cart, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "get %s", key)
	}

	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		zctx.From(ctx).Warn("Discarding malformed stored cart",
			zap.String("key", key),
			zap.Error(err),
		)
		_ = s.Delete(ctx, key)
		return nil, nil
	}
	return &c, nil
}

// SaveCart serializes and writes a cart under the given key.
func SaveCart(ctx context.Context, s Store, key string, c *cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return errors.Wrapf(err, "set %s", key)
	}
	return nil
}
