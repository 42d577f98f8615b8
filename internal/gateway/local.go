package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway/protocol"
)

// Local is the connection-strategy decorator: it selects the endpoint once
// at connect time (the configured remote URL, else the local default),
// creates the inner gateway lazily, and forwards all traffic
// unconditionally.
//
// It is also the explicit reconnect wrapper. Connect itself never retries;
// but when a forwarded call fails because the connection was lost, Local
// redials once behind a circuit breaker, so a gateway that stays dead makes
// subsequent calls fail fast instead of hammering the socket.
type Local struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	inner   Gateway
	breaker *gobreaker.CircuitBreaker

	newInner func(opts Options) Gateway // test hook
}

var _ Gateway = (*Local)(nil)

// NewLocal builds a Local over a lazily created Client.
func NewLocal(opts Options) *Local {
	o := opts.withDefaults()
	return &Local{
		opts:   o,
		logger: o.Logger.With("component", "local_gateway"),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "gateway-redial",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		newInner: func(opts Options) Gateway { return NewClient(opts) },
	}
}

// Connect selects the endpoint and establishes the inner gateway.
func (l *Local) Connect(ctx context.Context) error {
	l.mu.Lock()
	if l.inner == nil {
		opts := l.opts
		if opts.URL == "" {
			opts.URL = DefaultGatewayURL
		}
		l.logger.Debug("selected gateway endpoint", "url", opts.URL)
		l.inner = l.newInner(opts)
	}
	inner := l.inner
	l.mu.Unlock()

	_, err := l.breaker.Execute(func() (any, error) {
		return nil, inner.Connect(ctx)
	})
	return breakerErr(err)
}

// Close forwards to the inner gateway. Idempotent before Connect.
func (l *Local) Close() error {
	l.mu.Lock()
	inner := l.inner
	l.mu.Unlock()

	if inner == nil {
		return nil
	}
	return inner.Close()
}

// Health forwards to the inner gateway.
func (l *Local) Health(ctx context.Context) HealthStatus {
	l.mu.Lock()
	inner := l.inner
	l.mu.Unlock()

	if inner == nil {
		return HealthStatus{Healthy: false, Details: map[string]any{"reason": "not connected"}}
	}
	return inner.Health(ctx)
}

// Call forwards to the inner gateway, redialing once on a lost connection.
func (l *Local) Call(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	l.mu.Lock()
	inner := l.inner
	l.mu.Unlock()

	if inner == nil {
		return nil, NewConnectionError(CodeNotConnected, "call before connect", nil).
			Detail("method", method)
	}

	result, err := inner.Call(ctx, method, params)
	if err == nil || !lostConnection(err) {
		return result, err
	}

	l.logger.Warn("connection lost mid-call, redialing", "method", method)
	if _, rerr := l.breaker.Execute(func() (any, error) {
		return nil, inner.Connect(ctx)
	}); rerr != nil {
		return nil, breakerErr(rerr)
	}
	return inner.Call(ctx, method, params)
}

// Subscribe forwards to the inner gateway.
func (l *Local) Subscribe(ctx context.Context, types ...protocol.EventType) (*Subscription, error) {
	l.mu.Lock()
	inner := l.inner
	l.mu.Unlock()

	if inner == nil {
		return nil, NewConnectionError(CodeNotConnected, "subscribe before connect", nil)
	}
	return inner.Subscribe(ctx, types...)
}

// lostConnection reports whether err means the transport died underneath an
// established connection, as opposed to the caller misusing the state
// machine or deliberately closing.
func lostConnection(err error) bool {
	var oce *OpenClawError
	return errors.As(err, &oce) && oce.Kind == KindConnection && oce.Code == CodeConnectionLost
}

// breakerErr maps circuit breaker states onto the SDK taxonomy.
func breakerErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return NewConnectionError(CodeDialFailed, "gateway unreachable, redial circuit open", err)
	}
	return err
}
