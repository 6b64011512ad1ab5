// Package apierr defines the error taxonomy shared by every core package and
// the control API. Only a subset of kinds ever crosses the control-API
// boundary as an HTTP response; the rest (BufferFull, TTLExpired,
// LinkBudgetFail) are recorded as metrics by the engine and never surfaced.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies the reason an operation failed.
type Kind string

const (
	KindInvalidInput    Kind = "InvalidInput"
	KindInvalidElements Kind = "InvalidElements"
	KindBufferFull      Kind = "BufferFull"
	KindTTLExpired      Kind = "TTLExpired"
	KindLinkBudgetFail  Kind = "LinkBudgetFail"
	KindNotFound        Kind = "NotFound"
	KindIllegalState    Kind = "IllegalState"
	KindFatal           Kind = "Fatal"
)

// Error is the concrete error type returned by core packages.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Surfaced reports whether this kind ever crosses the control-API boundary.
// BufferFull, TTLExpired, and LinkBudgetFail are metrics-only per the error
// handling policy: they are recorded, never returned to a caller.
func (k Kind) Surfaced() bool {
	switch k {
	case KindInvalidInput, KindInvalidElements, KindNotFound, KindIllegalState, KindFatal:
		return true
	default:
		return false
	}
}

// HTTPStatus maps a kind to the status code the control API should respond
// with. Only consulted by internal/apiserver.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput, KindInvalidElements:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindIllegalState:
		return http.StatusConflict
	case KindFatal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput reports malformed external input (CSV rows, control-API config).
func InvalidInput(format string, args ...any) *Error { return newf(KindInvalidInput, format, args...) }

// InvalidElements reports a Keplerian element set violating §3's invariants.
func InvalidElements(format string, args ...any) *Error {
	return newf(KindInvalidElements, format, args...)
}

// BufferFull reports that a buffer could not free enough capacity for an insert.
func BufferFull(format string, args ...any) *Error { return newf(KindBufferFull, format, args...) }

// TTLExpired reports a bundle aged out at sweep time.
func TTLExpired(format string, args ...any) *Error { return newf(KindTTLExpired, format, args...) }

// LinkBudgetFail reports an SNR shortfall that collapsed a contact's rate to zero.
func LinkBudgetFail(format string, args ...any) *Error {
	return newf(KindLinkBudgetFail, format, args...)
}

// NotFound reports an unknown identifier in a control-API call.
func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

// IllegalState reports an operation invalid for the simulation's current state.
func IllegalState(format string, args ...any) *Error { return newf(KindIllegalState, format, args...) }

// Fatal reports a condition the engine cannot recover from, such as Kepler
// solver non-convergence; the simulation moves to the error state.
func Fatal(err error, format string, args ...any) *Error {
	e := newf(KindFatal, format, args...)
	e.Err = err
	return e
}

// As reports whether err (or something it wraps) is an *Error, returning it.
func As(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}
