package billing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
)

func TestUsage(t *testing.T) {
	mock := gateway.NewMock()
	if err := mock.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	mock.Register("billing.usage", map[string]any{
		"inputTokens":  12000,
		"outputTokens": 3400,
		"costUsd":      0.42,
		"requests":     7,
	})

	m := NewManager(mock, slog.New(slog.DiscardHandler))

	u, err := m.Usage(context.Background(), "cli:default")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if u.InputTokens != 12000 || u.OutputTokens != 3400 || u.Requests != 7 {
		t.Errorf("usage = %+v", u)
	}
	if u.CostUSD != 0.42 {
		t.Errorf("cost = %v", u.CostUSD)
	}
	if mock.Calls()[0].Params["sessionKey"] != "cli:default" {
		t.Errorf("params = %v", mock.Calls()[0].Params)
	}
}

func TestUsageTotalsOmitSessionKey(t *testing.T) {
	mock := gateway.NewMock()
	if err := mock.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	mock.Register("billing.usage", map[string]any{"requests": 0})

	m := NewManager(mock, slog.New(slog.DiscardHandler))
	if _, err := m.Usage(context.Background(), ""); err != nil {
		t.Fatalf("usage: %v", err)
	}
	if _, ok := mock.Calls()[0].Params["sessionKey"]; ok {
		t.Error("sessionKey should be omitted for totals")
	}
}
