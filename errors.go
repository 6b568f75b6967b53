package sdk

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a provider error. The kind determines the code
// attached to the error when it crosses the RPC boundary.
type ErrorKind string

const (
	ErrNotFound           ErrorKind = "not_found"
	ErrValidation         ErrorKind = "validation"
	ErrUnknownResource    ErrorKind = "unknown_resource"
	ErrInternal           ErrorKind = "internal"
	ErrConfiguration      ErrorKind = "configuration"
	ErrAlreadyExists      ErrorKind = "already_exists"
	ErrPermissionDenied   ErrorKind = "permission_denied"
	ErrResourceExhausted  ErrorKind = "resource_exhausted"
	ErrUnavailable        ErrorKind = "unavailable"
	ErrDeadlineExceeded   ErrorKind = "deadline_exceeded"
	ErrFailedPrecondition ErrorKind = "failed_precondition"
	ErrUnimplemented      ErrorKind = "unimplemented"
	ErrInvalidRequest     ErrorKind = "invalid_request"
	ErrSerialization      ErrorKind = "serialization"
	ErrTransport          ErrorKind = "transport"
)

// prefixes maps each kind to the human-readable prefix used when an error is
// rendered as a diagnostic summary.
var prefixes = map[ErrorKind]string{
	ErrNotFound:           "Resource not found",
	ErrValidation:         "Validation error",
	ErrUnknownResource:    "Unknown resource type",
	ErrInternal:           "SDK error",
	ErrConfiguration:      "Configuration error",
	ErrAlreadyExists:      "Resource already exists",
	ErrPermissionDenied:   "Permission denied",
	ErrResourceExhausted:  "Resource exhausted",
	ErrUnavailable:        "Service unavailable",
	ErrDeadlineExceeded:   "Deadline exceeded",
	ErrFailedPrecondition: "Failed precondition",
	ErrUnimplemented:      "Unimplemented",
	ErrInvalidRequest:     "Invalid request",
	ErrSerialization:      "Serialization error",
	ErrTransport:          "Transport error",
}

// Error is the typed failure returned by provider capability methods. The
// dispatch layer converts it into a single error diagnostic; it never crosses
// the wire as a transport failure.
type Error struct {
	Kind    ErrorKind
	Message string
	// Err is the wrapped cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix, ok := prefixes[e.Kind]
	if !ok {
		prefix = "Provider error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the wrapped cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// Is matches two errors of the same kind so callers can test with
// errors.Is(err, &sdk.Error{Kind: sdk.ErrNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError creates an error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an error of the given kind wrapping a cause.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Convenience constructors, one per kind the capability interface commonly
// returns.

func NotFoundf(format string, args ...any) *Error   { return NewError(ErrNotFound, format, args...) }
func Validationf(format string, args ...any) *Error { return NewError(ErrValidation, format, args...) }
func Internalf(format string, args ...any) *Error   { return NewError(ErrInternal, format, args...) }
func Configurationf(format string, args ...any) *Error {
	return NewError(ErrConfiguration, format, args...)
}
func AlreadyExistsf(format string, args ...any) *Error {
	return NewError(ErrAlreadyExists, format, args...)
}
func Unimplementedf(format string, args ...any) *Error {
	return NewError(ErrUnimplemented, format, args...)
}

// UnknownResourcef reports an unrecognized resource or data source type.
func UnknownResourcef(format string, args ...any) *Error {
	return NewError(ErrUnknownResource, format, args...)
}

// KindOf extracts the ErrorKind from any error. Errors that are not *Error
// classify as internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrInternal
}
