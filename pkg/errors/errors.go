// Package errors provides the normalized error taxonomy for UserDeck.
//
// Every failure surfaced to a caller of the API client (and every failure
// the backend reports) is tagged with exactly one Cause, so callers can
// switch over the documented causes instead of branching on raw status
// codes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Cause identifies the failure bucket of a normalized error
type Cause string

const (
	CauseBadRequest   Cause = "BAD_REQUEST"
	CauseUnauthorized Cause = "UNAUTHORIZED"
	CauseForbidden    Cause = "FORBIDDEN"
	CauseNotFound     Cause = "NOT_FOUND"
	CauseServerError  Cause = "SERVER_ERROR"
	CauseNetworkError Cause = "NETWORK_ERROR"
	CauseConfigError  Cause = "CONFIG_ERROR"
)

// Fallback human messages used when the server supplies none.
const (
	MsgBadRequest   = "invalid request"
	MsgUnauthorized = "unauthorized, please log in again"
	MsgForbidden    = "forbidden"
	MsgNotFound     = "not found"
	MsgServerError  = "server error, please try again later"
	MsgNetworkError = "network error, check connectivity"
)

// Error represents a normalized UserDeck error
type Error struct {
	Cause     Cause                  `json:"cause"`
	Message   string                 `json:"message"`
	Status    int                    `json:"status,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Err       error                  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s (caused by: %v)", e.Cause, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Cause, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithStatus records the transport status the error was derived from
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// WithRequestID adds a request ID to the error
func (e *Error) WithRequestID(requestID string) *Error {
	e.RequestID = requestID
	return e
}

// New creates a normalized error with the given cause and message
func New(cause Cause, message string) *Error {
	return &Error{Cause: cause, Message: message}
}

// Wrap creates a normalized error that wraps an underlying error
func Wrap(err error, cause Cause, message string) *Error {
	return &Error{Cause: cause, Message: message, Err: err}
}

// Per-cause constructors

func NewBadRequest(message string) *Error {
	return New(CauseBadRequest, orFallback(message, MsgBadRequest))
}

func NewUnauthorized(message string) *Error {
	return New(CauseUnauthorized, orFallback(message, MsgUnauthorized))
}

func NewForbidden(message string) *Error {
	return New(CauseForbidden, orFallback(message, MsgForbidden))
}

func NewNotFound(message string) *Error {
	return New(CauseNotFound, orFallback(message, MsgNotFound))
}

func NewServerError(message string) *Error {
	return New(CauseServerError, orFallback(message, MsgServerError))
}

// NewNetworkError reports an absent response. The message is fixed; the
// transport error rides along as the wrapped cause.
func NewNetworkError(err error) *Error {
	return Wrap(err, CauseNetworkError, MsgNetworkError)
}

// NewConfigError reports a failure raised before any request was sent. The
// message is the raised error's own text.
func NewConfigError(message string) *Error {
	return New(CauseConfigError, message)
}

func orFallback(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

// CauseForStatus maps a transport status (or an application-level envelope
// code) onto the nearest taxonomy bucket.
func CauseForStatus(status int) Cause {
	switch {
	case status == 400:
		return CauseBadRequest
	case status == 401:
		return CauseUnauthorized
	case status == 403:
		return CauseForbidden
	case status == 404:
		return CauseNotFound
	case status >= 500:
		return CauseServerError
	case status >= 400:
		return CauseBadRequest
	default:
		return CauseServerError
	}
}

// FromStatus builds a normalized error from a status code and the
// server-supplied message, applying the per-cause fallback when the message
// is empty.
func FromStatus(status int, message string) *Error {
	var e *Error
	switch CauseForStatus(status) {
	case CauseBadRequest:
		e = NewBadRequest(message)
	case CauseUnauthorized:
		e = NewUnauthorized(message)
	case CauseForbidden:
		e = NewForbidden(message)
	case CauseNotFound:
		e = NewNotFound(message)
	default:
		e = NewServerError(message)
	}
	return e.WithStatus(status)
}

// CauseOf extracts the cause from an error chain
func CauseOf(err error) (Cause, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Cause, true
	}
	return "", false
}

// IsCause reports whether the error chain carries the given cause
func IsCause(err error, cause Cause) bool {
	c, ok := CauseOf(err)
	return ok && c == cause
}

// AsError extracts a normalized *Error from an error chain
func AsError(err error) *Error {
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return nil
}

// HumanMessage returns the message a UI should render for err. Non-normalized
// errors fall back to their plain text.
func HumanMessage(err error) string {
	if e := AsError(err); e != nil {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
