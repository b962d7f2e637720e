package order

import (
	"errors"
	"fmt"

	"bookstore/pkg/catalog"
)

var (
	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrNoDraft indicates the owner has no order accepting items.
	ErrNoDraft = errors.New("no draft order")
	// ErrDraftExists is returned by Ledger.CreateOrder when the owner already has a draft.
	ErrDraftExists = errors.New("draft order already exists")
	// ErrAlreadyPlaced indicates the order was finalized already.
	ErrAlreadyPlaced = errors.New("order already placed")

	// ErrInvalidQuantity is returned for item quantities below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrInvalidPrice is returned when a unit price is zero or negative.
	ErrInvalidPrice = errors.New("unit price must be positive")
	// ErrUnknownDeliveryType is returned for delivery codes outside the known tiers.
	ErrUnknownDeliveryType = errors.New("unknown delivery type")
	// ErrNegativeTotal is returned when an amount would take an order total below zero.
	ErrNegativeTotal = errors.New("order total would be negative")
	// ErrInvalidCommand indicates a malformed command, such as an unparsable ID.
	ErrInvalidCommand = errors.New("invalid command")
)

// Kind classifies failures for the transport layer.
type Kind string

const (
	// KindNotFound covers unknown orders, books and missing drafts.
	KindNotFound Kind = "not_found"
	// KindInvalidArgument covers bad quantities, prices, delivery codes and commands.
	KindInvalidArgument Kind = "invalid_argument"
	// KindConflict covers writes against an order that was already placed.
	KindConflict Kind = "conflict"
	// KindUnavailable covers storage and catalog failures.
	KindUnavailable Kind = "unavailable"
)

// Error is returned by Service. Err is the underlying failure, untouched.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error returns "<op>: <cause>".
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err. Errors that were not classified by
// Service report KindUnavailable.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return classify(err)
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoDraft), errors.Is(err, catalog.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrUnknownDeliveryType), errors.Is(err, ErrNegativeTotal),
		errors.Is(err, ErrInvalidCommand):
		return KindInvalidArgument
	case errors.Is(err, ErrAlreadyPlaced), errors.Is(err, ErrDraftExists):
		return KindConflict
	default:
		return KindUnavailable
	}
}
