// Package billing surfaces token and cost usage tracked by the gateway.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
)

// Usage is accumulated consumption, either for one session or overall.
type Usage struct {
	InputTokens  int64   `json:"inputTokens"`
	OutputTokens int64   `json:"outputTokens"`
	CostUSD      float64 `json:"costUsd"`
	Requests     int64   `json:"requests"`
}

type Manager struct {
	gw     gateway.Gateway
	logger *slog.Logger
}

func NewManager(gw gateway.Gateway, logger *slog.Logger) *Manager {
	return &Manager{gw: gw, logger: logger.With("component", "billing")}
}

// Usage returns consumption for sessionKey, or totals when it is empty.
func (m *Manager) Usage(ctx context.Context, sessionKey string) (*Usage, error) {
	var params map[string]any
	if sessionKey != "" {
		params = map[string]any{"sessionKey": sessionKey}
	}
	result, err := m.gw.Call(ctx, "billing.usage", params)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("decode billing.usage: %w", err)
	}
	var u Usage
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decode billing.usage: %w", err)
	}
	return &u, nil
}
