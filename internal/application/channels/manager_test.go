package channels

import (
	"context"
	"log/slog"
	"testing"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
)

func TestStatusSortedByName(t *testing.T) {
	mock := gateway.NewMock()
	if err := mock.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	mock.Register("channels.status", map[string]any{
		"telegram": map[string]any{"enabled": true, "connected": true},
		"cli":      map[string]any{"enabled": true, "connected": true},
		"slack":    map[string]any{"enabled": false, "connected": false, "detail": "no token"},
	})

	m := NewManager(mock, slog.New(slog.DiscardHandler))
	statuses, err := m.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("expected 3 channels, got %d", len(statuses))
	}
	wantOrder := []string{"cli", "slack", "telegram"}
	for i, name := range wantOrder {
		if statuses[i].Name != name {
			t.Errorf("channel %d = %q, want %q", i, statuses[i].Name, name)
		}
	}
	if statuses[1].Detail != "no token" || statuses[1].Enabled {
		t.Errorf("slack status = %+v", statuses[1])
	}
}

func TestStatusNotConnected(t *testing.T) {
	mock := gateway.NewMock()
	m := NewManager(mock, slog.New(slog.DiscardHandler))
	if _, err := m.Status(context.Background()); !gateway.IsConnectionError(err) {
		t.Errorf("expected connection error, got %v", err)
	}
}
