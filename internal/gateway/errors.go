package gateway

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by a Gateway is an *OpenClawError of
// one of these kinds; callers never see raw transport errors.
type ErrorKind string

const (
	// KindConnection covers transport establishment and loss: calling
	// before connect, the socket dying mid-call, close during a call.
	KindConnection ErrorKind = "connection"
	// KindTimeout covers a deadline expiring while awaiting a response.
	KindTimeout ErrorKind = "timeout"
	// KindGateway covers well-formed remote errors (unknown method,
	// invalid params) and malformed responses.
	KindGateway ErrorKind = "gateway"
)

// Machine-readable error codes carried in OpenClawError.Code.
const (
	CodeNotConnected     = "not_connected"
	CodeConnectionClosed = "connection_closed"
	CodeConnectionLost   = "connection_lost"
	CodeDialFailed       = "dial_failed"
	CodeCallTimeout      = "call_timeout"
	CodeMethodNotFound   = "method_not_found"
	CodeRemoteError      = "remote_error"
	CodeMalformedResult  = "malformed_result"
	CodeDuplicateID      = "duplicate_correlation_id"
)

// OpenClawError is the common error type for all gateway failures. It
// carries a machine-readable code and an optional details map alongside the
// human-readable message.
type OpenClawError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *OpenClawError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *OpenClawError) Unwrap() error { return e.Err }

// Detail returns a copy of the error with one detail added.
func (e *OpenClawError) Detail(key string, value any) *OpenClawError {
	out := *e
	out.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

// NewConnectionError builds a connection-kind error.
func NewConnectionError(code, message string, cause error) *OpenClawError {
	return &OpenClawError{Kind: KindConnection, Code: code, Message: message, Err: cause}
}

// NewTimeoutError builds a timeout-kind error.
func NewTimeoutError(message string) *OpenClawError {
	return &OpenClawError{Kind: KindTimeout, Code: CodeCallTimeout, Message: message}
}

// NewGatewayError builds a gateway-kind error.
func NewGatewayError(code, message string) *OpenClawError {
	return &OpenClawError{Kind: KindGateway, Code: code, Message: message}
}

func isKind(err error, kind ErrorKind) bool {
	var oce *OpenClawError
	return errors.As(err, &oce) && oce.Kind == kind
}

// IsConnectionError reports whether err is a connection-kind failure.
func IsConnectionError(err error) bool { return isKind(err, KindConnection) }

// IsTimeoutError reports whether err is a timeout-kind failure.
func IsTimeoutError(err error) bool { return isKind(err, KindTimeout) }

// IsGatewayError reports whether err is a gateway-kind failure.
func IsGatewayError(err error) bool { return isKind(err, KindGateway) }

// IsMethodNotFound reports whether err is the remote's unknown-method error.
func IsMethodNotFound(err error) bool {
	var oce *OpenClawError
	return errors.As(err, &oce) && oce.Code == CodeMethodNotFound
}
