// Package domain contains the core business entities and interfaces for the
// 3-D Secure payment service.
package domain

import "errors"

// Domain errors represent business rule violations.
// These are used to communicate specific error conditions from the domain layer.
var (
	// ErrValidation is returned when the cart or card details are missing or
	// invalid. Raised before any gateway call so a bad cart can never produce
	// a zero-value authorization.
	ErrValidation = errors.New("invalid payment details")

	// ErrMissingReference is returned when a challenge result arrives for an
	// attempt with no stored 3DS reference - an expired or tampered session.
	// The continuation cannot proceed; the user must restart.
	ErrMissingReference = errors.New("no 3DS reference stored for this attempt")

	// ErrGateway is returned when the payment gateway call fails on
	// transport, times out, or returns a malformed response. Never retried
	// automatically for a SALE: retrying risks duplicate charges.
	ErrGateway = errors.New("payment gateway error")

	// ErrUnrecognizedPayload is returned when an inbound POST body matches
	// none of the known 3DS payload shapes.
	ErrUnrecognizedPayload = errors.New("unrecognized payload")

	// ErrSessionNotFound is returned when no in-flight payment attempt
	// exists for the session, or it has expired.
	ErrSessionNotFound = errors.New("no active payment attempt for session")
)

// PaymentError wraps a domain error with additional context.
type PaymentError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to work with PaymentError.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError with the given error and message.
func NewPaymentError(err error, message, code string) *PaymentError {
	return &PaymentError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
