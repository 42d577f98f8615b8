package gateway

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		connection bool
		timeout    bool
		gateway    bool
	}{
		{"connection", NewConnectionError(CodeNotConnected, "not connected", nil), true, false, false},
		{"timeout", NewTimeoutError("deadline exceeded"), false, true, false},
		{"gateway", NewGatewayError(CodeRemoteError, "boom"), false, false, true},
		{"wrapped", fmt.Errorf("call failed: %w", NewConnectionError(CodeConnectionLost, "gone", errors.New("eof"))), true, false, false},
		{"plain", errors.New("plain"), false, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsConnectionError(tc.err); got != tc.connection {
				t.Errorf("IsConnectionError = %v; want %v", got, tc.connection)
			}
			if got := IsTimeoutError(tc.err); got != tc.timeout {
				t.Errorf("IsTimeoutError = %v; want %v", got, tc.timeout)
			}
			if got := IsGatewayError(tc.err); got != tc.gateway {
				t.Errorf("IsGatewayError = %v; want %v", got, tc.gateway)
			}
		})
	}
}

func TestMethodNotFound(t *testing.T) {
	err := NewGatewayError(CodeMethodNotFound, "unknown method: nope")
	if !IsMethodNotFound(err) {
		t.Error("expected IsMethodNotFound")
	}
	if IsMethodNotFound(NewGatewayError(CodeRemoteError, "other")) {
		t.Error("remote_error must not match method-not-found")
	}
}

func TestErrorDetail(t *testing.T) {
	base := NewGatewayError(CodeRemoteError, "boom")
	withMethod := base.Detail("method", "chat.send")
	if base.Details != nil {
		t.Error("Detail must not mutate the original")
	}
	if withMethod.Details["method"] != "chat.send" {
		t.Errorf("Details = %v", withMethod.Details)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewConnectionError(CodeDialFailed, "dial failed", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}
