package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-cart/internal/domain/product"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *bool) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	unauthorized := false
	c, err := New(Config{
		BaseURL:        srv.URL,
		OnUnauthorized: func() { unauthorized = true },
	})
	require.NoError(t, err)
	return c, &unauthorized
}

func TestAddItemRequestShape(t *testing.T) {
	var (
		gotMethod, gotPath string
		gotBody            []byte
	)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"id":"cart-1","items":[{"id":"l1","productId":"p1","name":"A","price":5,"quantity":2}]}`))
	})

	cart, err := c.AddItem(t.Context(), "p1", 2, "", "")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/cart/add", gotPath)
	assert.JSONEq(t, `{"productId":"p1","quantity":2}`, string(gotBody))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "l1", cart.Lines[0].ID)
}

func TestUpdateAndRemovePaths(t *testing.T) {
	var gotMethod, gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"id":"cart-1","items":[]}`))
	})
	ctx := t.Context()

	_, err := c.UpdateItem(ctx, "line-7", 3)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/cart/line-7", gotPath)

	_, err = c.RemoveItem(ctx, "line-7")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/cart/line-7", gotPath)

	_, err = c.ClearCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/cart/clear", gotPath)
}

func TestUnauthorizedFiresHookOnAnyOperation(t *testing.T) {
	c, unauthorized := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.FetchCart(t.Context())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, *unauthorized)
}

func TestServerValidationMessageSurfacedVerbatim(t *testing.T) {
	c, unauthorized := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"code":422,"message":"insufficient stock for product p1"}`))
	})

	_, err := c.AddItem(t.Context(), "p1", 99, "", "")
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 422, se.Code)
	assert.Equal(t, "insufficient stock for product p1", se.Message)
	assert.False(t, *unauthorized)
}

func TestErrorBodyWithoutMessageGetsStatusText(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>upstream down</html>`))
	})

	_, err := c.FetchCart(t.Context())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "Bad Gateway", se.Message)
}

func TestCatalog(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products":
			w.Write([]byte(`[{"id":"p1","name":"A","price":1.5}]`))
		case "/products/p1":
			w.Write([]byte(`{"id":"p1","name":"A","price":1.5}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":404,"message":"not found"}`))
		}
	})
	ctx := t.Context()

	ps, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, ps, 1)

	p, err := c.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "A", p.Name)

	_, err = c.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, product.ErrNotFound)
}
