package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLineNotFound         = errors.New("basket line not found")
	ErrAddonParentNotFound  = errors.New("addon parent line not found")
	ErrExtraNotFound        = errors.New("extra not found on line")
	ErrQuantityLimit        = errors.New("quantity limit reached")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrOrderNotTracked      = errors.New("order is not tracked")
	ErrOrderNotEditable     = errors.New("order can no longer be edited")
	ErrOrderNotCancellable  = errors.New("order can no longer be cancelled")
	ErrNoChanges            = errors.New("no changes to submit")
	ErrEditItemNotFound     = errors.New("order item not found")
	ErrNoEditSession        = errors.New("order is not in edit mode")
	ErrNoCancelSession      = errors.New("order cancellation was not started")
	ErrOrderTypeNotFound    = errors.New("order type not found")
	ErrNoPendingPriceChange = errors.New("no price change awaiting confirmation")
	ErrAwaitingPriceConfirm = errors.New("confirm or dismiss the price change before editing")
)

// OperationError wraps a failed remote operation with its user-facing message.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// UserMessage is the generic text shown in a toast.
func (e *OperationError) UserMessage() string {
	return "failed to " + e.Op
}

// ValidationError collects every client-detected violation.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// UserMessage returns the user-facing text for err.
func UserMessage(err error) string {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.UserMessage()
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return strings.Join(valErr.Violations, "\n")
	}
	return err.Error()
}
