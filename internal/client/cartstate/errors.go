package cartstate

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an operation failure
type ErrorKind string

const (
	// KindValidation means the input was rejected before any remote call
	KindValidation ErrorKind = "validation"
	// KindRemote means the remote call failed. Callers may retry.
	KindRemote ErrorKind = "remote"
	// KindMisconfigured means the deployment cannot issue anti-forgery
	// tokens. Retrying does not help.
	KindMisconfigured ErrorKind = "misconfigured"
)

// Op names a controller operation
type Op string

// Controller operations
const (
	OpFetch          Op = "fetch"
	OpAddItem        Op = "add_item"
	OpUpdateQuantity Op = "update_quantity"
	OpRemoveItem     Op = "remove_item"
	OpClearCart      Op = "clear_cart"
	OpApplyDiscount  Op = "apply_discount"
	OpRemoveDiscount Op = "remove_discount"
)

var failureMessages = map[Op]string{
	OpFetch:          "Failed to load cart",
	OpAddItem:        "Failed to add item to cart",
	OpUpdateQuantity: "Failed to update item quantity",
	OpRemoveItem:     "Failed to remove item from cart",
	OpClearCart:      "Failed to clear cart",
	OpApplyDiscount:  "Failed to apply discount code",
	OpRemoveDiscount: "Failed to remove discount code",
}

// ErrMisconfigured is returned by token generators that cannot sign tokens
var ErrMisconfigured = errors.New("anti-forgery tokens are not configured")

// OpError is returned by every failed controller operation
type OpError struct {
	Op      Op
	Kind    ErrorKind
	Message string
	// Err is the underlying cause. It is logged but never shown as Message.
	Err error
}

func (e *OpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cartstate %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("cartstate %s: %s", e.Op, e.Message)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether repeating the operation may succeed
func (e *OpError) IsRetryable() bool {
	return e.Kind == KindRemote
}

func validationError(op Op, message string) *OpError {
	return &OpError{Op: op, Kind: KindValidation, Message: message}
}

func remoteError(op Op, err error) *OpError {
	return &OpError{Op: op, Kind: KindRemote, Message: failureMessages[op], Err: err}
}

func misconfiguredError(op Op, err error) *OpError {
	return &OpError{
		Op:      op,
		Kind:    KindMisconfigured,
		Message: "Cart changes are unavailable: anti-forgery protection is not configured",
		Err:     err,
	}
}
