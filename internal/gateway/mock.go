package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway/protocol"
)

// CallRecord is one (method, params) pair received by the Mock, in order.
// The call log is part of the contract under test: suites assert on call
// sequencing and exact parameters.
type CallRecord struct {
	Method string
	Params map[string]any
}

type mockResponse struct {
	result map[string]any
	err    error
	delay  time.Duration
}

// Mock is a behaviorally equivalent, transport-free Gateway used for
// deterministic testing. It shares the real dispatcher, so event ordering
// semantics are the production ones rather than a simulation, and it fails
// with the identical error kinds as Client for identical misuse.
type Mock struct {
	mu        sync.Mutex
	connected bool
	responses map[string]mockResponse
	calls     []CallRecord

	// emitMu serializes Emit so events keep FIFO order even when emitted
	// from concurrent test goroutines.
	emitMu   sync.Mutex
	dispatch *dispatcher
}

var _ Gateway = (*Mock)(nil)

// NewMock builds a disconnected Mock.
func NewMock() *Mock {
	return &Mock{
		responses: make(map[string]mockResponse),
		dispatch:  newDispatcher(0, slog.Default()),
	}
}

// Register pre-programs the result Call returns for method. Unregistered
// methods fail with a method-not-found gateway error, forcing tests to be
// explicit.
func (m *Mock) Register(method string, result map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[method] = mockResponse{result: result}
}

// RegisterError pre-programs a failure for method.
func (m *Mock) RegisterError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[method] = mockResponse{err: err}
}

// RegisterDelayed pre-programs a result that resolves only after delay,
// for exercising per-call timeouts.
func (m *Mock) RegisterDelayed(method string, result map[string]any, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[method] = mockResponse{result: result, delay: delay}
}

// Emit delivers an event to every currently matching subscription, exactly
// mirroring the ordering invariant of the real dispatcher: subscriptions
// created later never see it.
func (m *Mock) Emit(ev StreamEvent) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	m.dispatch.publish(ev)
}

// Calls returns every (method, params) pair received, in order.
func (m *Mock) Calls() []CallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CallRecord, len(m.calls))
	copy(out, m.calls)
	return out
}

// Reset clears the call log and registered responses. The connected flag
// is left alone.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.responses = make(map[string]mockResponse)
}

// Connect toggles the connected flag on. Idempotent.
func (m *Mock) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	m.dispatch.reopen()
	return nil
}

// Close toggles the connected flag off and ends every open subscription.
// Idempotent.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.connected = false
	m.mu.Unlock()

	m.dispatch.closeAll()
	return nil
}

// Health reports healthy while connected.
func (m *Mock) Health(ctx context.Context) HealthStatus {
	m.mu.Lock()
	connected := m.connected
	m.mu.Unlock()

	if !connected {
		return HealthStatus{Healthy: false, Details: map[string]any{"reason": "not connected"}}
	}
	return HealthStatus{Healthy: true, Version: "mock", Details: map[string]any{"mock": true}}
}

// Call records the invocation and returns the pre-programmed response.
func (m *Mock) Call(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil, NewConnectionError(CodeNotConnected, "call while disconnected", nil).
			Detail("method", method)
	}
	m.calls = append(m.calls, CallRecord{Method: method, Params: params})
	resp, ok := m.responses[method]
	m.mu.Unlock()

	if !ok {
		return nil, NewGatewayError(CodeMethodNotFound, "unknown method: "+method).
			Detail("method", method)
	}

	if resp.delay > 0 {
		timer := time.NewTimer(resp.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, NewTimeoutError("call deadline exceeded").Detail("method", method)
			}
			return nil, ctx.Err()
		}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return resp.result, nil
}

// Subscribe mirrors Client.Subscribe, including state-machine parity.
func (m *Mock) Subscribe(ctx context.Context, types ...protocol.EventType) (*Subscription, error) {
	m.mu.Lock()
	connected := m.connected
	m.mu.Unlock()

	if !connected {
		return nil, NewConnectionError(CodeNotConnected, "subscribe while disconnected", nil)
	}

	sub := m.dispatch.subscribe(types...)
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				sub.Close()
			case <-sub.done:
			}
		}()
	}
	return sub, nil
}
