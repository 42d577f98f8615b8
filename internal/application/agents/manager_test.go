package agents

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway/protocol"
)

func newTestManager(t *testing.T) (*Manager, *gateway.Mock) {
	t.Helper()
	mock := gateway.NewMock()
	if err := mock.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return NewManager(mock, slog.New(slog.DiscardHandler)), mock
}

// waitForCall blocks until method shows up in the mock's call log.
func waitForCall(t *testing.T, mock *gateway.Mock, method string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, c := range mock.Calls() {
			if c.Method == method {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("call %q never arrived", method)
}

func TestListAgents(t *testing.T) {
	m, mock := newTestManager(t)
	mock.Register("agents.list", map[string]any{
		"result": []any{
			map[string]any{"id": "main", "name": "Main", "default": true},
			map[string]any{"id": "coder", "name": "Coder", "model": "claude-opus"},
		},
	})

	agents, err := m.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}
	if !agents[0].Default || agents[1].Model != "claude-opus" {
		t.Errorf("unexpected agents: %+v", agents)
	}
}

func TestRunAssemblesStreamedReply(t *testing.T) {
	m, mock := newTestManager(t)
	mock.Register("chat.send", map[string]any{"accepted": true})

	type outcome struct {
		res *RunResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := m.Run(context.Background(), "cli:default", "hello", RunOptions{})
		done <- outcome{res, err}
	}()

	waitForCall(t, mock, "chat.send")
	for _, text := range []string{"Hel", "lo ", "there"} {
		mock.Emit(gateway.StreamEvent{Type: protocol.EventContent, Data: map[string]any{"text": text}})
	}
	mock.Emit(gateway.StreamEvent{Type: protocol.EventFileGenerated, Data: map[string]any{"path": "/tmp/out.txt"}})
	mock.Emit(gateway.StreamEvent{Type: protocol.EventDone, Data: nil})

	out := <-done
	if out.err != nil {
		t.Fatalf("run: %v", out.err)
	}
	if out.res.Reply != "Hello there" {
		t.Errorf("reply = %q, want %q", out.res.Reply, "Hello there")
	}
	if len(out.res.Files) != 1 || out.res.Files[0] != "/tmp/out.txt" {
		t.Errorf("files = %v", out.res.Files)
	}
}

func TestRunErrorEventFailsTheRun(t *testing.T) {
	m, mock := newTestManager(t)
	mock.Register("chat.send", nil)

	done := make(chan error, 1)
	go func() {
		_, err := m.Run(context.Background(), "cli:default", "hi", RunOptions{})
		done <- err
	}()

	waitForCall(t, mock, "chat.send")
	mock.Emit(gateway.StreamEvent{Type: protocol.EventError, Data: map[string]any{"message": "model overloaded"}})

	err := <-done
	if !gateway.IsGatewayError(err) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	var oce *gateway.OpenClawError
	if errors.As(err, &oce) && oce.Message != "model overloaded" {
		t.Errorf("message = %q", oce.Message)
	}
}

func TestRunObservesEventsInOrder(t *testing.T) {
	m, mock := newTestManager(t)
	mock.Register("chat.send", nil)

	var seen []protocol.EventType
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(context.Background(), "cli:default", "hi", RunOptions{
			OnEvent: func(ev gateway.StreamEvent) { seen = append(seen, ev.Type) },
		})
	}()

	waitForCall(t, mock, "chat.send")
	mock.Emit(gateway.StreamEvent{Type: protocol.EventThinking, Data: map[string]any{"text": "hmm"}})
	mock.Emit(gateway.StreamEvent{Type: protocol.EventToolCall, Data: map[string]any{"name": "read_file"}})
	mock.Emit(gateway.StreamEvent{Type: protocol.EventToolResult, Data: map[string]any{"ok": true}})
	mock.Emit(gateway.StreamEvent{Type: protocol.EventDone, Data: nil})

	<-done
	want := []protocol.EventType{protocol.EventThinking, protocol.EventToolCall, protocol.EventToolResult, protocol.EventDone}
	if len(seen) != len(want) {
		t.Fatalf("saw %d events, want %d: %v", len(seen), len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestRunCancellation(t *testing.T) {
	m, mock := newTestManager(t)
	mock.Register("chat.send", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Run(ctx, "cli:default", "hi", RunOptions{})
		done <- err
	}()

	waitForCall(t, mock, "chat.send")
	cancel()

	if err := <-done; err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
