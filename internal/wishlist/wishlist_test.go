package wishlist

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-cart/internal/domain/product"
	"github.com/xenking/storefront-cart/internal/localstore"
)

func entry(id, color string) Entry {
	return Entry{
		Product: product.Product{ID: id, Name: "P " + id, Price: decimal.NewFromInt(10)},
		Color:   color,
	}
}

func TestAddDeduplicatesByProductAndVariant(t *testing.T) {
	l := New(localstore.NewMemStore())
	ctx := t.Context()

	require.NoError(t, l.Add(ctx, entry("p1", "red")))
	require.NoError(t, l.Add(ctx, entry("p1", "red")))
	require.NoError(t, l.Add(ctx, entry("p1", "blue")))

	items, err := l.Items(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRemoveDropsAllVariants(t *testing.T) {
	l := New(localstore.NewMemStore())
	ctx := t.Context()

	require.NoError(t, l.Add(ctx, entry("p1", "red")))
	require.NoError(t, l.Add(ctx, entry("p1", "blue")))
	require.NoError(t, l.Add(ctx, entry("p2", "")))

	require.NoError(t, l.Remove(ctx, "p1"))

	items, err := l.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].Product.ID)

	// Removing an absent product is a no-op.
	require.NoError(t, l.Remove(ctx, "p1"))
}

func TestMalformedStateReadsAsEmpty(t *testing.T) {
	store := localstore.NewMemStore()
	ctx := t.Context()
	require.NoError(t, store.Set(ctx, localstore.KeyWishlist, []byte(`{not json`)))

	l := New(store)
	items, err := l.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
