package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Error kinds. Transport maps them to status codes.
var (
	ErrValidation         = errors.New("validation error")    // 400
	ErrNotFound           = errors.New("not found")           // 404
	ErrConflict           = errors.New("conflict")            // 409
	ErrInvalidState       = errors.New("invalid state")       // 409
	ErrInsufficientStock  = errors.New("insufficient stock")  // 422
	ErrInvariantViolation = errors.New("invariant violation") // 500
	ErrInternal           = errors.New("internal error")      // 500
)

var (
	ErrOrderNotFound     = fmt.Errorf("order %w", ErrNotFound)
	ErrDispatchNotFound  = fmt.Errorf("dispatch record %w", ErrNotFound)
	ErrStockNotFound     = fmt.Errorf("stock entry %w", ErrNotFound)
	ErrSpecNotOnOrder    = fmt.Errorf("%w: product spec is not on the order", ErrValidation)
	ErrExceedsRemaining  = fmt.Errorf("%w: quantity exceeds remaining", ErrValidation)
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrInvalidState)
)

type InsufficientStockError struct {
	Spec      ProductSpec
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %s, available %s",
		e.Spec, e.Requested.StringFixed(QuantityPlaces), e.Available.StringFixed(QuantityPlaces))
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type InvariantViolationError struct {
	OrderID uuid.UUID
	Spec    ProductSpec
	Detail  string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation on order %s spec %s: %s", e.OrderID, e.Spec, e.Detail)
}

func (e *InvariantViolationError) Is(target error) bool {
	return target == ErrInvariantViolation
}
