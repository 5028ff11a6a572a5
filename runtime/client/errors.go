package client

import (
	"errors"
	"fmt"
)

// Error types for client operations.
var (
	// ErrTransport is returned when the backend could not be reached.
	ErrTransport = errors.New("transport failure")

	// ErrBackend is returned when the backend reports a failure.
	ErrBackend = errors.New("backend error")

	// ErrMissingIdentifier is returned when a mutation has no usable identifier.
	ErrMissingIdentifier = errors.New("missing record identifier")

	// ErrEmptyQuery is returned when there is no SQL to execute.
	ErrEmptyQuery = errors.New("empty query")
)

// TransportError wraps a network level failure.
type TransportError struct {
	Op  Operation
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is checks if the error is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// BackendError is a structured failure reported by the gateway or a
// resource endpoint. Message and Details are shown to the operator as-is.
type BackendError struct {
	Op      Operation
	Status  int
	Message string
	Details string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s failed (%d): %s", e.Op, e.Status, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// Is checks if the error is ErrBackend.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// MissingIdentifierError is returned before any request is sent when a
// record has no usable identifier.
type MissingIdentifierError struct {
	Table string
	Field string
}

// Error implements the error interface.
func (e *MissingIdentifierError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: field %q of %s is empty", ErrMissingIdentifier, e.Field, e.Table)
	case e.Table != "":
		return fmt.Sprintf("%s for %s", ErrMissingIdentifier, e.Table)
	default:
		return ErrMissingIdentifier.Error()
	}
}

// Is checks if the error is ErrMissingIdentifier.
func (e *MissingIdentifierError) Is(target error) bool {
	return target == ErrMissingIdentifier
}

// IsTransportError checks if an error is a transport failure.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsBackendError checks if an error was reported by the backend.
func IsBackendError(err error) bool {
	return errors.Is(err, ErrBackend)
}

// IsMissingIdentifier checks if an error is a missing identifier error.
func IsMissingIdentifier(err error) bool {
	return errors.Is(err, ErrMissingIdentifier)
}
