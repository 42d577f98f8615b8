// Package gateway implements the OpenClaw SDK's communication layer: one
// logical WebSocket connection to a remote gateway, exposed to the rest of
// the SDK as exactly two primitives (Call and Subscribe) plus lifecycle
// operations (Connect, Close, Health).
//
// Every higher-level feature (agents, sessions, channels, config, billing)
// is a consumer of the Gateway interface and never sees correlation ids,
// transport framing, or dispatcher internals.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway/protocol"
)

// DefaultGatewayURL is the local gateway endpoint.
const DefaultGatewayURL = "ws://127.0.0.1:18789"

const defaultHealthTimeout = 5 * time.Second

// State is the connection state, owned exclusively by the Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// HealthStatus is the result of a health probe. Recomputed on every call,
// never cached.
type HealthStatus struct {
	Healthy   bool           `json:"healthy"`
	LatencyMS int64          `json:"latencyMs,omitempty"`
	Version   string         `json:"version,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Gateway is the five-operation capability set consumed by every feature
// manager. Implemented by Client, Mock, Local and Audited; test doubles
// fail with the identical error kinds for identical misuse.
type Gateway interface {
	// Connect establishes the connection. Idempotent when already
	// connected; fails with a connection error when the endpoint cannot
	// be established within a bounded attempt. It never silently
	// retries — retry policy belongs to the caller or to Local.
	Connect(ctx context.Context) error

	// Close tears the connection down, failing every pending call with a
	// connection error and ending (not erroring) every subscription.
	// Idempotent.
	Close() error

	// Health issues a lightweight probe. It never returns an error: any
	// failure yields Healthy=false with the cause in Details.
	Health(ctx context.Context) HealthStatus

	// Call performs one request/response exchange. Concurrent calls are
	// independent and may resolve out of order; each caller gets the
	// response for its own request. A context deadline failing first
	// yields a timeout error; the eventual late response is discarded.
	Call(ctx context.Context, method string, params map[string]any) (map[string]any, error)

	// Subscribe registers interest in server-pushed stream events. An
	// empty type list means all events. Each call creates an independent
	// subscription seeing only events emitted after it; there is no
	// replay.
	Subscribe(ctx context.Context, types ...protocol.EventType) (*Subscription, error)
}

// Options configures a Client. Zero values get sane defaults.
type Options struct {
	URL            string
	Token          string
	ClientName     string
	ClientVersion  string
	DialTimeout    time.Duration
	CallTimeout    time.Duration // default per-call deadline; 0 = none
	EventHighWater int
	Logger         *slog.Logger

	dial dialFunc // test hook
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.URL == "" {
		out.URL = DefaultGatewayURL
	}
	if out.ClientName == "" {
		out.ClientName = "openclaw-go-sdk"
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = 10 * time.Second
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.dial == nil {
		out.dial = dialWebSocket
	}
	return out
}

// Client is the production Gateway over a WebSocket endpoint. The endpoint
// is exclusively owned by the Client; a single reader goroutine
// demultiplexes inbound frames into the correlation table (responses) and
// the dispatcher (events).
type Client struct {
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	state State
	ep    endpoint

	pending  *pendingTable
	dispatch *dispatcher
}

var _ Gateway = (*Client)(nil)

// NewClient builds a disconnected Client.
func NewClient(opts Options) *Client {
	o := opts.withDefaults()
	logger := o.Logger.With("component", "gateway")
	return &Client{
		opts:     o,
		logger:   logger,
		state:    StateDisconnected,
		pending:  newPendingTable(logger),
		dispatch: newDispatcher(o.EventHighWater, logger),
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the endpoint and performs the protocol handshake.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		return nil
	case StateConnecting, StateClosing:
		state := c.state
		c.mu.Unlock()
		return NewConnectionError(CodeNotConnected, "connect while "+state.String(), nil)
	}
	c.state = StateConnecting
	c.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	ep, err := c.opts.dial(dialCtx, c.opts.URL, c.logger)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return NewConnectionError(CodeDialFailed, "cannot establish gateway connection", err).
			Detail("url", c.opts.URL)
	}

	c.mu.Lock()
	c.ep = ep
	c.state = StateConnected
	c.pending.reopen()
	c.dispatch.reopen()
	c.mu.Unlock()

	go c.readLoop(ep)

	if err := c.handshake(ctx); err != nil {
		c.Close()
		return err
	}

	c.logger.Info("gateway connected", "url", c.opts.URL)
	return nil
}

// handshake identifies this client via the reserved connect method. A
// gateway that does not implement it is tolerated.
func (c *Client) handshake(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.DialTimeout)
		defer cancel()
	}
	raw, err := json.Marshal(protocol.ConnectParams{
		Token: c.opts.Token,
		ClientInfo: protocol.ClientInfo{
			Name:     c.opts.ClientName,
			Version:  c.opts.ClientVersion,
			Platform: "go",
		},
	})
	if err != nil {
		return NewConnectionError(CodeDialFailed, "cannot encode handshake", err)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return NewConnectionError(CodeDialFailed, "cannot encode handshake", err)
	}
	_, err = c.Call(ctx, "connect", params)
	if err != nil && !IsMethodNotFound(err) {
		return NewConnectionError(CodeDialFailed, "gateway rejected handshake", err)
	}
	return nil
}

// Close tears down the connection. After it returns no pending request or
// subscription from this connection remains resolvable.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	ep := c.ep
	c.mu.Unlock()

	if ep != nil {
		ep.close()
	}
	c.teardown(NewConnectionError(CodeConnectionClosed, "connection closed", nil))
	c.logger.Info("gateway closed")
	return nil
}

// teardown fails all pending calls, ends all subscriptions and settles the
// state machine. Idempotent: Close and the reader loop's exit path may both
// reach it.
func (c *Client) teardown(cause *OpenClawError) {
	c.pending.failAll(cause)
	c.dispatch.closeAll()

	c.mu.Lock()
	c.state = StateDisconnected
	c.ep = nil
	c.mu.Unlock()
}

// Call performs one correlated request/response exchange.
func (c *Client) Call(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	c.mu.Lock()
	if c.state != StateConnected {
		state := c.state
		c.mu.Unlock()
		return nil, NewConnectionError(CodeNotConnected, "call while "+state.String(), nil).
			Detail("method", method)
	}
	ep := c.ep
	c.mu.Unlock()

	id := uuid.New().String()
	slot, err := c.pending.register(id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(protocol.RPCRequest{ID: id, Method: method, Params: params})
	if err != nil {
		c.pending.remove(id)
		return nil, NewGatewayError(CodeMalformedResult, "cannot serialize request").Detail("method", method)
	}

	if c.opts.CallTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.opts.CallTimeout)
			defer cancel()
		}
	}

	if err := ep.send(data); err != nil {
		c.pending.remove(id)
		return nil, NewConnectionError(CodeConnectionLost, "connection lost before send", err).
			Detail("method", method)
	}

	select {
	case res := <-slot:
		if res.err != nil {
			return nil, res.err
		}
		return decodeResult(res.result)
	case <-ctx.Done():
		// Lose interest: deregister so the late response resolves as an
		// unknown id and is discarded.
		c.pending.remove(id)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, NewTimeoutError("call deadline exceeded").Detail("method", method)
		}
		return nil, ctx.Err()
	}
}

func decodeResult(raw []byte) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		// Non-object results (arrays, scalars) are preserved under a
		// fixed key so the contract stays "a mapping".
		var anyResult any
		if err2 := json.Unmarshal(raw, &anyResult); err2 != nil {
			return nil, NewGatewayError(CodeMalformedResult, "unparseable response result")
		}
		return map[string]any{"result": anyResult}, nil
	}
	return result, nil
}

// Subscribe registers a new event sink. The subscription ends when the
// caller closes it, the supplied context is cancelled, or the gateway
// closes.
func (c *Client) Subscribe(ctx context.Context, types ...protocol.EventType) (*Subscription, error) {
	c.mu.Lock()
	if c.state != StateConnected {
		state := c.state
		c.mu.Unlock()
		return nil, NewConnectionError(CodeNotConnected, "subscribe while "+state.String(), nil)
	}
	c.mu.Unlock()

	sub := c.dispatch.subscribe(types...)
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

// Health probes the gateway with the reserved health method.
func (c *Client) Health(ctx context.Context) HealthStatus {
	if c.State() != StateConnected {
		return HealthStatus{
			Healthy: false,
			Details: map[string]any{"reason": "not connected", "state": c.State().String()},
		}
	}

	probeCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, defaultHealthTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := c.Call(probeCtx, "health", nil)
	if err != nil {
		return HealthStatus{
			Healthy: false,
			Details: map[string]any{"error": err.Error()},
		}
	}

	status := HealthStatus{
		Healthy:   true,
		LatencyMS: time.Since(start).Milliseconds(),
		Details:   result,
	}
	if v, ok := result["version"].(string); ok {
		status.Version = v
	}
	return status
}

// readLoop is the shared reader demultiplexing inbound frames. A malformed
// frame is logged and discarded; one bad frame must not terminate every
// in-flight operation.
func (c *Client) readLoop(ep endpoint) {
	for {
		data, err := ep.receive()
		if err != nil {
			break
		}

		frame, err := protocol.ParseFrame(data)
		if err != nil {
			c.logger.Warn("discarding malformed frame", "error", err)
			continue
		}

		if frame.IsEvent() {
			c.publishEvent(frame)
			continue
		}

		if frame.Error != nil {
			c.pending.fail(frame.ID, remoteError(frame.Error))
		} else {
			c.pending.resolve(frame.ID, frame.Result)
		}
	}

	// Receive failed: either a deliberate Close or transport loss.
	c.mu.Lock()
	deliberate := c.state == StateClosing || c.state == StateDisconnected
	c.mu.Unlock()

	if deliberate {
		c.teardown(NewConnectionError(CodeConnectionClosed, "connection closed", nil))
		return
	}
	c.logger.Warn("gateway connection lost")
	ep.close()
	c.teardown(NewConnectionError(CodeConnectionLost, "gateway connection lost", nil))
}

func (c *Client) publishEvent(frame *protocol.Frame) {
	var payload map[string]any
	if len(frame.Payload) > 0 {
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			c.logger.Warn("discarding event with malformed payload",
				"event", frame.Event, "error", err)
			return
		}
	}
	c.dispatch.publish(StreamEvent{Type: protocol.EventType(frame.Event), Data: payload})
}

// remoteError maps a wire error onto the SDK taxonomy.
func remoteError(e *protocol.RPCError) *OpenClawError {
	code := CodeRemoteError
	if e.Code == protocol.ErrMethodNotFound {
		code = CodeMethodNotFound
	}
	return NewGatewayError(code, e.Message).Detail("rpc_code", e.Code)
}
