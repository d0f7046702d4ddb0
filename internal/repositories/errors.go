package repositories

import "errors"

var (
	// ErrProductNotFound is returned when the targeted product row does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a decrement would drive stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStockOverflow is returned when an addition would exceed the largest storable quantity.
	ErrStockOverflow = errors.New("stock quantity overflow")
	// ErrIDExhausted is returned when no free product id was found within the attempt budget.
	ErrIDExhausted = errors.New("could not allocate a unique product id")
)
