package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError marks bad caller input. The enclosing transaction is rolled
// back and the message is safe to show to the cashier.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError is returned by the stock ledger when a decrement
// would drive a product's stock below zero.
type InsufficientStockError struct {
	Product   string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %s, requested %s",
		e.Product, e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

// NotFoundError reports a missing Product/Customer/Sale/Debt/Purchase.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func notFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(key)}
}

// ConflictError reports an operation that is valid in general but not in the
// entity's current state (completing a cancelled purchase, duplicate barcode).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func conflictf(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}
