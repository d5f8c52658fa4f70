// Package apierrors provides the gateway's unified error taxonomy, mirroring
// the shape of the teacher's infrastructure/errors package but scoped to the
// error kinds spec.md §7 names for a processor execution subsystem.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the error categories spec.md §7 defines.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindParse        Kind = "PARSE"
	KindSerialize    Kind = "SERIALIZE"
	KindDatabase     Kind = "DATABASE"
	KindProcessing   Kind = "PROCESSING"
	KindLocking      Kind = "LOCKING"
	KindEmptyDbField Kind = "EMPTY_DB_FIELD"
	KindCustom       Kind = "CUSTOM"
)

// GatewayError is a structured error carrying enough information to render
// the JSON {code, message} envelope spec.md §7 requires.
type GatewayError struct {
	Kind    Kind
	Message string
	// Outbound marks a Processing error as originating from an outbound
	// HTTP dispatch (502) rather than the engine itself (500).
	Outbound bool
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// New constructs a GatewayError with no wrapped cause.
func New(kind Kind, message string) *GatewayError {
	return &GatewayError{Kind: kind, Message: message}
}

// Wrap constructs a GatewayError around an existing error.
func Wrap(kind Kind, message string, err error) *GatewayError {
	return &GatewayError{Kind: kind, Message: message, Err: err}
}

// NotFound builds a NotFound error for the given resource/id pair, matching
// spec.md scenario 5's exact message shape.
func NotFound(resource, id string) *GatewayError {
	return New(KindNotFound, fmt.Sprintf("%s with id %s not found", resource, id))
}

// Parse builds a Parse error, used for string->enum/uuid/timestamp failures.
func Parse(message string, err error) *GatewayError {
	return Wrap(KindParse, message, err)
}

// Serialize builds a Serialize error for JSON encode/decode failures.
func Serialize(message string, err error) *GatewayError {
	return Wrap(KindSerialize, message, err)
}

// Database builds a Database error for pool/query failures.
func Database(message string, err error) *GatewayError {
	return Wrap(KindDatabase, message, err)
}

// Processing builds an engine-side Processing error (HTTP 500).
func Processing(message string, err error) *GatewayError {
	return Wrap(KindProcessing, message, err)
}

// OutboundProcessing builds a Processing error originating in dispatch_request's
// outbound HTTP call (HTTP 502).
func OutboundProcessing(message string, err error) *GatewayError {
	return &GatewayError{Kind: KindProcessing, Message: message, Err: err, Outbound: true}
}

// Locking builds a Locking error; should be unreachable on the happy path.
func Locking(message string) *GatewayError {
	return New(KindLocking, message)
}

// EmptyDbField builds an EmptyDbField error for an invariant violation on read.
func EmptyDbField(message string) *GatewayError {
	return New(KindEmptyDbField, message)
}

// Custom builds a catch-all error from an opaque string.
func Custom(message string) *GatewayError {
	return New(KindCustom, message)
}

// As extracts a *GatewayError from an error chain, if present.
func As(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// HTTPStatus maps a GatewayError (or an opaque error, defaulting to 500) to
// the HTTP status spec.md §7's table assigns it.
func HTTPStatus(err error) int {
	ge, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ge.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindParse:
		return http.StatusBadRequest
	case KindSerialize, KindLocking, KindEmptyDbField, KindCustom, KindDatabase:
		return http.StatusInternalServerError
	case KindProcessing:
		if ge.Outbound {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the numeric status code rendered in the JSON error envelope.
func Code(err error) int {
	return HTTPStatus(err)
}

// Message returns the user-facing message for an error, falling back to the
// unhandled-rejection sentinel spec.md §7 specifies.
func Message(err error) string {
	if ge, ok := As(err); ok {
		return ge.Message
	}
	if err == nil {
		return ""
	}
	return "UNHANDLED_REJECTION"
}
