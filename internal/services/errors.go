package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation failed")
)

// Operation names the service operation an OperationError came from.
type Operation string

const (
	OpRetrieve    Operation = "retrieve"
	OpCreate      Operation = "create"
	OpUpdate      Operation = "update"
	OpDelete      Operation = "delete"
	OpAdjustStock Operation = "adjust-stock"
)

// NotFoundError reports that no product exists with the given ID.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product with ID %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError reports a decrement larger than the quantity on hand.
type InsufficientStockError struct {
	ID        int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product ID %d (requested %d)", e.ID, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ValidationError reports an invalid input value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// OperationError wraps an unexpected store fault with the operation that hit it.
// Domain errors (not found, insufficient stock, validation) are never wrapped.
type OperationError struct {
	Op  Operation
	ID  int
	Err error
}

func (e *OperationError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("an error occurred during %s of product %d: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("an error occurred during %s of products: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }
