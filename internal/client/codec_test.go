package client

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCartNestedProduct(t *testing.T) {
	data := []byte(`{
		"_id": "cart-42",
		"items": [
			{
				"_id": "line-1",
				"product": {
					"_id": "p1",
					"name": "Waffle with Berries",
					"slug": "waffle-with-berries",
					"price": 6.5,
					"image": "waffle.jpg"
				},
				"quantity": 2,
				"color": "red",
				"size": null,
				"addedAt": "2026-02-01T10:00:00Z"
			}
		],
		"summary": {"itemCount": 1, "totalQuantity": 2, "subtotal": 13}
	}`)

	c, err := decodeCart(data)
	require.NoError(t, err)

	assert.Equal(t, "cart-42", c.ID)
	require.Len(t, c.Lines, 1)

	l := c.Lines[0]
	assert.Equal(t, "line-1", l.ID)
	assert.Equal(t, "p1", l.Product.ID)
	assert.Equal(t, "Waffle with Berries", l.Product.Name)
	assert.True(t, l.Product.Price.Equal(decimal.RequireFromString("6.5")))
	assert.Equal(t, 2, l.Quantity)
	assert.Equal(t, "red", l.Color)
	assert.Empty(t, l.Size)
	assert.Equal(t, 2026, l.AddedAt.Year())

	require.NotNil(t, c.Summary)
	assert.Equal(t, 1, c.Summary.ItemCount)
	assert.Equal(t, 2, c.Summary.TotalQuantity)
	assert.True(t, c.Summary.Subtotal.Equal(decimal.NewFromInt(13)))
}

func TestDecodeCartFlattenedProduct(t *testing.T) {
	// Legacy shape: product fields live directly on the line.
	data := []byte(`{
		"id": "cart-42",
		"items": [
			{
				"id": "line-2",
				"productId": "p2",
				"name": "Vanilla Panna Cotta",
				"slug": "vanilla-panna-cotta",
				"unit_price": "6.50",
				"image_url": "panna-cotta.jpg",
				"quantity": 1
			}
		]
	}`)

	c, err := decodeCart(data)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)

	l := c.Lines[0]
	assert.Equal(t, "line-2", l.ID)
	assert.Equal(t, "p2", l.Product.ID)
	assert.Equal(t, "Vanilla Panna Cotta", l.Product.Name)
	assert.True(t, l.Product.Price.Equal(decimal.RequireFromString("6.50")))
	assert.Equal(t, "panna-cotta.jpg", l.Product.Image)
	assert.Equal(t, 1, l.Quantity)
	assert.Nil(t, c.Summary)
}

func TestDecodeCartUnknownFieldsSkipped(t *testing.T) {
	data := []byte(`{"id":"c","currency":"USD","items":[],"meta":{"a":[1,2]}}`)

	c, err := decodeCart(data)
	require.NoError(t, err)
	assert.Equal(t, "c", c.ID)
	assert.Empty(t, c.Lines)
}

func TestDecodeProductsBareArrayAndWrapped(t *testing.T) {
	bare := []byte(`[{"id":"p1","name":"A","price":1.5},{"id":"p2","name":"B","price":"2.25"}]`)
	wrapped := []byte(`{"products":[{"id":"p1","name":"A","price":1.5}]}`)

	ps, err := decodeProducts(bare)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.True(t, ps[1].Price.Equal(decimal.RequireFromString("2.25")))

	ps, err = decodeProducts(wrapped)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "p1", ps[0].ID)
}

func TestDecodeStatusError(t *testing.T) {
	se := decodeStatusError([]byte(`{"code":422,"message":"insufficient stock for p1"}`))
	assert.Equal(t, 422, se.Code)
	assert.Equal(t, "insufficient stock for p1", se.Message)

	// Malformed bodies produce a zero error for the caller to fill in.
	se = decodeStatusError([]byte(`<html>bad gateway</html>`))
	assert.Zero(t, se.Code)
	assert.Empty(t, se.Message)
}

func TestEncodeAddItem(t *testing.T) {
	body := encodeAddItem("p1", 2, "red", "")
	assert.JSONEq(t, `{"productId":"p1","quantity":2,"color":"red"}`, string(body))

	body = encodeAddItem("p2", 1, "", "")
	assert.JSONEq(t, `{"productId":"p2","quantity":1}`, string(body))
}
