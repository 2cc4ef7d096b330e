package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a transaction abort
type ErrorKind string

const (
	// ErrAuthorization: caller lacks the required capability or signature
	ErrAuthorization ErrorKind = "authorization"
	// ErrValidation: malformed or out-of-range input
	ErrValidation ErrorKind = "validation"
	// ErrState: operation illegal in the current lifecycle state
	ErrState ErrorKind = "state"
	// ErrInsufficientPayment: fee below minimum or fee-currency settlement failure
	ErrInsufficientPayment ErrorKind = "insufficient_payment"
	// ErrNotFound: registry or ledger lookup miss
	ErrNotFound ErrorKind = "not_found"
)

// Error is a transaction abort carrying a short diagnostic string.
// All errors are immediately fatal to the enclosing transaction; the ledger's
// atomicity guarantees failure leaves state exactly as it was before the call.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Authorizationf builds an authorization error
func Authorizationf(format string, args ...any) error {
	return &Error{Kind: ErrAuthorization, Msg: fmt.Sprintf(format, args...)}
}

// Validationf builds a validation error
func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Statef builds a state error
func Statef(format string, args ...any) error {
	return &Error{Kind: ErrState, Msg: fmt.Sprintf(format, args...)}
}

// InsufficientPaymentf builds an insufficient-payment error
func InsufficientPaymentf(format string, args ...any) error {
	return &Error{Kind: ErrInsufficientPayment, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// IsKind checks whether err (or any error it wraps) is a domain error of the
// given kind
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// KindOf returns the error kind, or empty if err is not a domain error
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
