package client

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-cart/internal/domain/cart"
	"github.com/xenking/storefront-cart/internal/domain/product"
)

// The API has historically served cart lines in two shapes: the product
// nested under "product", or its fields flattened onto the line itself.
// Both are normalized into cart.Line here, once, so no read site ever
// branches on the shape again.

func decodeCart(data []byte) (*cart.Cart, error) {
	c := cart.New()
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id", "_id":
			s, err := d.Str()
			if err != nil {
				return err
			}
			c.ID = s
			return nil
		case "items", "lines":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				l, err := decodeLine(d)
				if err != nil {
					return err
				}
				c.Lines = append(c.Lines, l)
				return nil
			})
		case "summary":
			if d.Next() == jx.Null {
				return d.Null()
			}
			s, err := decodeSummary(d)
			if err != nil {
				return err
			}
			c.Summary = &s
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return c, nil
}

func decodeLine(d *jx.Decoder) (cart.Line, error) {
	var l cart.Line
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id", "_id":
			return decodeStr(d, &l.ID)
		case "product":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				return decodeProductField(d, key, &l.Product)
			})
		case "quantity":
			q, err := d.Int()
			if err != nil {
				return err
			}
			l.Quantity = q
			return nil
		case "color":
			return decodeStr(d, &l.Color)
		case "size":
			return decodeStr(d, &l.Size)
		case "addedAt", "added_at":
			var raw string
			if err := decodeStr(d, &raw); err != nil {
				return err
			}
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				l.AddedAt = ts
			}
			return nil
		default:
			// Flattened shape: product fields live on the line itself.
			return decodeProductField(d, key, &l.Product)
		}
	})
	return l, err
}

func decodeProductField(d *jx.Decoder, key string, p *product.Product) error {
	switch key {
	case "id", "_id", "productId", "product_id":
		return decodeStr(d, &p.ID)
	case "name":
		return decodeStr(d, &p.Name)
	case "slug":
		return decodeStr(d, &p.Slug)
	case "price", "unitPrice", "unit_price":
		v, err := decodeDecimal(d)
		if err != nil {
			return err
		}
		p.Price = v
		return nil
	case "image", "imageUrl", "image_url":
		return decodeStr(d, &p.Image)
	default:
		return d.Skip()
	}
}

func decodeSummary(d *jx.Decoder) (cart.Summary, error) {
	var s cart.Summary
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "itemCount", "item_count":
			v, err := d.Int()
			if err != nil {
				return err
			}
			s.ItemCount = v
			return nil
		case "totalQuantity", "total_quantity":
			v, err := d.Int()
			if err != nil {
				return err
			}
			s.TotalQuantity = v
			return nil
		case "subtotal":
			v, err := decodeDecimal(d)
			if err != nil {
				return err
			}
			s.Subtotal = v
			return nil
		default:
			return d.Skip()
		}
	})
	return s, err
}

// decodeProducts accepts either a bare array or an object with a "products"
// field.
func decodeProducts(data []byte) ([]product.Product, error) {
	var out []product.Product
	d := jx.DecodeBytes(data)

	appendProduct := func(d *jx.Decoder) error {
		var p product.Product
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			return decodeProductField(d, key, &p)
		}); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	}

	var err error
	if d.Next() == jx.Array {
		err = d.Arr(appendProduct)
	} else {
		err = d.Obj(func(d *jx.Decoder, key string) error {
			if key == "products" {
				return d.Arr(appendProduct)
			}
			return d.Skip()
		})
	}
	if err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return out, nil
}

func decodeProduct(data []byte) (product.Product, error) {
	var p product.Product
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		return decodeProductField(d, key, &p)
	}); err != nil {
		return p, errors.Wrap(err, "decode product")
	}
	return p, nil
}

// decodeStatusError best-effort parses {"code": N, "message": "..."} bodies.
// Malformed error bodies yield a zero StatusError; the caller fills in the
// HTTP status.
func decodeStatusError(data []byte) *StatusError {
	se := &StatusError{}
	d := jx.DecodeBytes(data)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			v, err := d.Int()
			if err != nil {
				return err
			}
			se.Code = v
			return nil
		case "message", "error":
			return decodeStr(d, &se.Message)
		default:
			return d.Skip()
		}
	})
	return se
}

// decodeStr reads a string, treating null as empty.
func decodeStr(d *jx.Decoder, dst *string) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

// decodeDecimal accepts both JSON numbers and string-encoded numbers.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.Null:
		return decimal.Zero, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "parse decimal")
	}
	return v, nil
}

func encodeAddItem(productID string, quantity int, color, size string) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("productId")
	e.Str(productID)
	e.FieldStart("quantity")
	e.Int(quantity)
	if color != "" {
		e.FieldStart("color")
		e.Str(color)
	}
	if size != "" {
		e.FieldStart("size")
		e.Str(size)
	}
	e.ObjEnd()
	return e.Bytes()
}

func encodeQuantity(quantity int) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("quantity")
	e.Int(quantity)
	e.ObjEnd()
	return e.Bytes()
}

func encodeCoupon(code string) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Str(code)
	e.ObjEnd()
	return e.Bytes()
}
