package cartsync

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrLoginRequired is returned for operations that are disallowed for
// guests. It is synthesized locally and never sent to the network.
var ErrLoginRequired = errors.New("login required")

// Op names a cart mutation for error reporting.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
	OpCoupon Op = "coupon"
)

// OpError wraps a failed cart operation. The optimistic mutation has
// already been rolled back by the time the caller sees this.
type OpError struct {
	Op  Op
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("cart %s failed: %s", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
