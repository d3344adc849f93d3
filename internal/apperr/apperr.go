// Package apperr defines the error taxonomy shared by every SwiftBase
// service. Services return *Error and never translate a Kind into an
// HTTP status themselves; only the server package does that.
package apperr

import "fmt"

// Kind classifies an error independent of transport.
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindAuthFailure     Kind = "auth_failure"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindPayloadTooLarge Kind = "payload_too_large"
	KindStorage         Kind = "storage"
	KindInternal        Kind = "internal"
)

// Error is the single error type every SwiftBase service returns.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func WithField(kind Kind, field, message string) *Error {
	return &Error{Kind: kind, Message: message, Field: field}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Of returns err as an *Error if it already is one, otherwise wraps it
// as an Internal error with err as its cause.
func Of(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Kind: KindInternal, Message: "internal error", Cause: err}
}

func InvalidInput(message string) *Error    { return New(KindInvalidInput, message) }
func AuthFailure(message string) *Error     { return New(KindAuthFailure, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func PayloadTooLarge(message string) *Error { return New(KindPayloadTooLarge, message) }
func Storage(err error) *Error              { return Wrap(KindStorage, "storage error", err) }
func Internal(err error) *Error             { return Wrap(KindInternal, "internal error", err) }
