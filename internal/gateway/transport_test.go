package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// newEchoServer serves a WebSocket endpoint that echoes every text frame
// back to the sender.
func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestEndpointRoundTrip(t *testing.T) {
	srv := newEchoServer(t)

	ep, err := dialWebSocket(context.Background(), wsURL(srv), testLogger())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ep.close()

	msg := []byte(`{"id":"1","method":"health"}`)
	if err := ep.send(msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	data, err := ep.receive()
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if string(data) != string(msg) {
		t.Errorf("echoed %s; want %s", data, msg)
	}
}

func TestSendAfterCloseAlwaysFails(t *testing.T) {
	srv := newEchoServer(t)

	// The send buffer stays ready after close, so a bare two-way select
	// could still report success. Repeat enough rounds that an ordering
	// bug cannot hide behind scheduler luck.
	for round := 0; round < 20; round++ {
		ep, err := dialWebSocket(context.Background(), wsURL(srv), testLogger())
		if err != nil {
			t.Fatalf("round %d: dial: %v", round, err)
		}
		if err := ep.close(); err != nil {
			t.Fatalf("round %d: close: %v", round, err)
		}
		if err := ep.send([]byte(`{"id":"x","method":"noop"}`)); err == nil {
			t.Fatalf("round %d: send after close reported success", round)
		}
	}
}
