// Package apperror defines the typed failures returned across service boundaries.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can switch on it exhaustively.
type Kind string

const (
	Validation         Kind = "validation_error"
	DuplicateEmail     Kind = "duplicate_email"
	InvalidCredentials Kind = "invalid_credentials"
	Unauthorized       Kind = "unauthorized"
	Forbidden          Kind = "forbidden"
	NotFound           Kind = "not_found"
	EmptyCart          Kind = "empty_cart"
	InvalidQuantity    Kind = "invalid_quantity"
	InsufficientStock  Kind = "insufficient_stock"
	PriceChanged       Kind = "price_changed"
	RateLimited        Kind = "rate_limited"
	Network            Kind = "network_error"
	Internal           Kind = "internal_error"
)

// HTTPStatus maps a kind to the status code the API answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation, DuplicateEmail, EmptyCart, InvalidQuantity, InsufficientStock:
		return http.StatusBadRequest
	case PriceChanged:
		return http.StatusConflict
	case InvalidCredentials, Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case RateLimited:
		return http.StatusTooManyRequests
	case Network:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Message is safe to show to end users.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperror.New(NotFound, "")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New returns an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a classified error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ValidationFailed builds a Validation error with per-field messages.
func ValidationFailed(fields map[string]string) *Error {
	return &Error{Kind: Validation, Message: "Validation failed", Fields: fields}
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or Internal for unclassified errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
