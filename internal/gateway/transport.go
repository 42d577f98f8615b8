package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 1 << 20 // 1 MB max frame
	sendBuffer     = 256
)

// endpoint owns one physical connection to the gateway: send bytes, receive
// bytes, tear it down. The Client is its only user; consumers never touch
// the transport directly.
type endpoint interface {
	send(data []byte) error
	receive() ([]byte, error)
	close() error
}

// dialFunc establishes an endpoint. Swappable in tests for an in-memory
// pipe.
type dialFunc func(ctx context.Context, url string, logger *slog.Logger) (endpoint, error)

// dialWebSocket is the production dialer.
func dialWebSocket(ctx context.Context, url string, logger *slog.Logger) (endpoint, error) {
	dialer := websocket.Dialer{
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	ep := &wsEndpoint{
		conn:   conn,
		sendCh: make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger.With("component", "transport"),
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go ep.writePump()
	return ep, nil
}

// wsEndpoint adapts a gorilla WebSocket connection. All writes funnel
// through sendCh into a single write pump, so send is safe for concurrent
// invocation; receive is called only by the connection's reader loop.
type wsEndpoint struct {
	conn      *websocket.Conn
	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// send enqueues one outbound frame. The done channel takes priority over
// the send buffer: when both are ready a bare select picks arbitrarily, so
// a checked-first done plus a re-check after enqueue keep a frame from
// being reported as sent when the write pump has already stopped.
func (e *wsEndpoint) send(data []byte) error {
	select {
	case <-e.done:
		return fmt.Errorf("transport closed")
	default:
	}
	select {
	case e.sendCh <- data:
	case <-e.done:
		return fmt.Errorf("transport closed")
	}
	select {
	case <-e.done:
		// The frame may still sit in the buffer; nobody will drain it.
		return fmt.Errorf("transport closed")
	default:
		return nil
	}
}

func (e *wsEndpoint) receive() ([]byte, error) {
	_, data, err := e.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (e *wsEndpoint) close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.done)
		deadline := time.Now().Add(writeWait)
		e.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = e.conn.Close()
	})
	return err
}

// writePump serializes all outbound frames and keeps the connection alive
// with pings.
func (e *wsEndpoint) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		e.close()
	}()

	for {
		select {
		case msg := <-e.sendCh:
			e.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := e.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				e.logger.Warn("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			e.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := e.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-e.done:
			return
		}
	}
}
