package api

import (
	"errors"
	"fmt"
)

// Error codes the server is known to send in {"error": "..."} bodies.
const (
	CodeAccountPendingApproval = "account_pending_approval"
	CodeUnknownError           = "unknown_error"
	CodeInvalidResponse        = "invalid_response"
	CodeTimeout                = "timeout"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindTransport means the request never produced an HTTP response
	// (connection refused, reset, DNS failure, cancelled context).
	KindTransport Kind = iota
	// KindTimeout means the per-call deadline elapsed.
	KindTimeout
	// KindServer means the server answered with a failure status or an error payload.
	KindServer
	// KindProtocol means the response body did not have the expected JSON shape.
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindProtocol:
		return "protocol"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every Client operation that fails.
//
// Message is what a caller should show (or map to friendlier text); for
// server errors it is the verbatim value of the "error" field. Status is
// the HTTP status code when a response was received, otherwise 0.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func timeoutError(err error) *Error {
	return &Error{Kind: KindTimeout, Message: CodeTimeout, Err: err}
}

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

func serverError(status int, message string) *Error {
	return &Error{Kind: KindServer, Message: message, Status: status}
}

func protocolError(status int, err error) *Error {
	return &Error{Kind: KindProtocol, Message: CodeInvalidResponse, Status: status, Err: err}
}

// KindOf reports the Kind of err, or false when err is not an *Error.
func KindOf(err error) (Kind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

// StatusOf returns the HTTP status attached to err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsPendingApproval reports whether err carries the account_pending_approval code.
func IsPendingApproval(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Message == CodeAccountPendingApproval
}

// IsTimeout reports whether err is a per-call timeout.
func IsTimeout(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindTimeout
}
