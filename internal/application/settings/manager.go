// Package settings reads and patches the gateway's runtime configuration.
package settings

import (
	"context"
	"log/slog"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
)

// Manager covers config.get and config.patch. Values stay loosely typed
// because the gateway's config schema evolves independently of this SDK.
type Manager struct {
	gw     gateway.Gateway
	logger *slog.Logger
}

func NewManager(gw gateway.Gateway, logger *slog.Logger) *Manager {
	return &Manager{gw: gw, logger: logger.With("component", "settings")}
}

// Get returns the gateway's current configuration tree.
func (m *Manager) Get(ctx context.Context) (map[string]any, error) {
	return m.gw.Call(ctx, "config.get", nil)
}

// Patch applies a partial configuration update and returns the resulting
// tree. Keys absent from changes are left untouched on the gateway.
func (m *Manager) Patch(ctx context.Context, changes map[string]any) (map[string]any, error) {
	result, err := m.gw.Call(ctx, "config.patch", map[string]any{"changes": changes})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("config patched", "keys", len(changes))
	return result, nil
}
