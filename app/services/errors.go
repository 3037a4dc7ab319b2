package services

import (
	"errors"
	"fmt"
)

var (
	ErrClientNotFound  = errors.New("client not found")
	ErrShopNotFound    = errors.New("shop not found")
	ErrListingNotFound = errors.New("listing not found")
	ErrOrderNotFound   = errors.New("order not found")

	// ErrBasketEmpty is a status, not a fault: an empty basket at checkout
	// (or a lost checkout race) reports it without mutating anything.
	ErrBasketEmpty    = errors.New("basket is empty")
	ErrMissingContact = errors.New("no contact on file")
	ErrShopRestricted = errors.New("shop is not accepting orders")

	// ErrConflict surfaces a uniqueness violation that internal retry could
	// not absorb.
	ErrConflict = errors.New("conflicting concurrent update")

	ErrAlreadyVerified = errors.New("account already verified")
	ErrTokenExpired    = errors.New("verification token expired")
	ErrInvalidToken    = errors.New("invalid verification token")

	ErrHasShop = errors.New("account already has a shop")

	ErrImportBusy = errors.New("import queue is full")
)

// ValidationError reports malformed input. Nothing is mutated when one is
// returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// StateError reports an operation that is not valid in the order's current
// lifecycle state.
type StateError struct {
	From string
	To   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("transition %q -> %q is not allowed", e.From, e.To)
}
