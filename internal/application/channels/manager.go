// Package channels reports the state of gateway-side channel connectors.
package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
)

// Status is one channel connector's state as reported by the gateway.
type Status struct {
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Detail    string `json:"detail,omitempty"`
}

type Manager struct {
	gw     gateway.Gateway
	logger *slog.Logger
}

func NewManager(gw gateway.Gateway, logger *slog.Logger) *Manager {
	return &Manager{gw: gw, logger: logger.With("component", "channels")}
}

// Status returns the state of every channel connector, sorted by name.
func (m *Manager) Status(ctx context.Context) ([]Status, error) {
	result, err := m.gw.Call(ctx, "channels.status", nil)
	if err != nil {
		return nil, err
	}
	// The gateway keys the response by channel name.
	out := make([]Status, 0, len(result))
	for name, raw := range result {
		var s Status
		if err := decode(raw, &s); err != nil {
			return nil, fmt.Errorf("decode channel %q: %w", name, err)
		}
		s.Name = name
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func decode(src any, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
