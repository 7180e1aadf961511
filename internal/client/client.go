// Package client is the HTTP client for the remote storefront API: cart
// mutations, coupon application, and the product catalog. All payloads pass
// through a single normalizing codec at this boundary; the rest of the
// codebase only ever sees the canonical cart.Line shape.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-cart/internal/domain/cart"
	"github.com/xenking/storefront-cart/internal/domain/product"
)

// ErrUnauthorized is returned when the API answers 401. The configured
// OnUnauthorized hook fires before this error is returned, so session
// teardown happens regardless of which operation hit the 401.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is a server-reported failure (validation, insufficient stock,
// unknown coupon). Its message is surfaced to the user verbatim.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// Responses are bounded; the cart API never legitimately returns more.
const maxResponseBytes = 1 << 20

// Config holds the client's construction parameters.
type Config struct {
	// BaseURL is the API root, e.g. https://api.example.com/api.
	BaseURL string
	// HTTPClient executes requests. Callers typically pass a client whose
	// transport is decorated with auth, request IDs, and tracing.
	// Defaults to a client with a 15s timeout.
	HTTPClient *http.Client
	// OnUnauthorized fires on any 401 response.
	OnUnauthorized func()
}

// Client talks to the remote storefront API.
type Client struct {
	base           string
	http           *http.Client
	onUnauthorized func()
}

var _ product.Catalog = (*Client)(nil)

// New validates the base URL and returns a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if _, err := url.Parse(base); err != nil || base == "" {
		return nil, errors.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		base:           base,
		http:           httpc,
		onUnauthorized: cfg.OnUnauthorized,
	}, nil
}

// FetchCart returns the current authenticated cart.
func (c *Client) FetchCart(ctx context.Context) (*cart.Cart, error) {
	data, err := c.do(ctx, http.MethodGet, "/cart", nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetch cart")
	}
	return decodeCart(data)
}

// AddItem adds a product line to the remote cart and returns the updated cart.
func (c *Client) AddItem(ctx context.Context, productID string, quantity int, color, size string) (*cart.Cart, error) {
	body := encodeAddItem(productID, quantity, color, size)
	data, err := c.do(ctx, http.MethodPost, "/cart/add", body)
	if err != nil {
		return nil, errors.Wrapf(err, "add item %s", productID)
	}
	return decodeCart(data)
}

// UpdateItem changes a line's quantity and returns the updated cart.
func (c *Client) UpdateItem(ctx context.Context, itemID string, quantity int) (*cart.Cart, error) {
	body := encodeQuantity(quantity)
	data, err := c.do(ctx, http.MethodPut, "/cart/"+url.PathEscape(itemID), body)
	if err != nil {
		return nil, errors.Wrapf(err, "update item %s", itemID)
	}
	return decodeCart(data)
}

// RemoveItem deletes a line and returns the updated cart.
func (c *Client) RemoveItem(ctx context.Context, itemID string) (*cart.Cart, error) {
	data, err := c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(itemID), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "remove item %s", itemID)
	}
	return decodeCart(data)
}

// ClearCart empties the remote cart and returns the (empty) cart.
func (c *Client) ClearCart(ctx context.Context) (*cart.Cart, error) {
	data, err := c.do(ctx, http.MethodDelete, "/cart/clear", nil)
	if err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}
	return decodeCart(data)
}

// ApplyCoupon validates a coupon code server-side and returns the updated
// cart with the discount applied.
func (c *Client) ApplyCoupon(ctx context.Context, code string) (*cart.Cart, error) {
	body := encodeCoupon(code)
	data, err := c.do(ctx, http.MethodPost, "/cart/coupon", body)
	if err != nil {
		return nil, errors.Wrapf(err, "apply coupon %s", code)
	}
	return decodeCart(data)
}

// List returns the product catalog.
func (c *Client) List(ctx context.Context) ([]product.Product, error) {
	data, err := c.do(ctx, http.MethodGet, "/products", nil)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return decodeProducts(data)
}

// GetByID returns a single product. A 404 maps to product.ErrNotFound.
func (c *Client) GetByID(ctx context.Context, id string) (*product.Product, error) {
	data, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %s", id)
	}
	p, err := decodeProduct(data)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// do executes one request and maps the response status: 401 fires the
// unauthorized hook and returns ErrUnauthorized, other 4xx/5xx become
// StatusError with the server's message when one is present.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		se := decodeStatusError(data)
		if se.Code == 0 {
			se.Code = resp.StatusCode
		}
		if se.Message == "" {
			se.Message = http.StatusText(resp.StatusCode)
		}
		return nil, se
	}

	return data, nil
}
