package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrOutOfStock   = errors.New("out of stock")
	ErrAllocation   = errors.New("allocation error")
	ErrDeallocation = errors.New("deallocation error")
)

// ValidationError reports a malformed constructor argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// OutOfStockError is returned when a product has no batch eligible for a line.
type OutOfStockError struct {
	SKU string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("Out of stock for sku %s", e.SKU)
}

func (e *OutOfStockError) Unwrap() error { return ErrOutOfStock }

// AllocationError is returned when a batch refuses an order line.
type AllocationError struct {
	LineReference  string
	BatchReference string
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("Cannot allocate line %s to batch %s", e.LineReference, e.BatchReference)
}

func (e *AllocationError) Unwrap() error { return ErrAllocation }

// DeallocationError is returned when a line is not allocated to the batch.
type DeallocationError struct {
	LineReference  string
	BatchReference string
}

func (e *DeallocationError) Error() string {
	return fmt.Sprintf("Cannot deallocate line %s from batch %s", e.LineReference, e.BatchReference)
}

func (e *DeallocationError) Unwrap() error { return ErrDeallocation }
