// Package sessions provides session management over the gateway.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
)

// Session describes one chat session as reported by the gateway.
type Session struct {
	Key            string `json:"key"`
	Channel        string `json:"channel"`
	AgentID        string `json:"agentId,omitempty"`
	Model          string `json:"model,omitempty"`
	ThinkingLevel  string `json:"thinkingLevel,omitempty"`
	MessageCount   int    `json:"messageCount"`
	LastActivityAt int64  `json:"lastActivityAt"`
}

// Patch is a partial session update; empty fields are left untouched.
type Patch struct {
	Model         string `json:"model,omitempty"`
	ThinkingLevel string `json:"thinkingLevel,omitempty"`
	VerboseLevel  string `json:"verboseLevel,omitempty"`
}

// Manager wraps the sessions.* RPC surface. It holds no state and adds no
// retries; errors from the gateway pass through unchanged.
type Manager struct {
	gw     gateway.Gateway
	logger *slog.Logger
}

// NewManager creates a session manager over gw.
func NewManager(gw gateway.Gateway, logger *slog.Logger) *Manager {
	return &Manager{gw: gw, logger: logger.With("component", "sessions")}
}

// List returns all sessions.
func (m *Manager) List(ctx context.Context) ([]Session, error) {
	result, err := m.gw.Call(ctx, "sessions.list", nil)
	if err != nil {
		return nil, err
	}
	var out []Session
	if err := decode(result["result"], &out); err != nil {
		return nil, fmt.Errorf("decode sessions.list: %w", err)
	}
	return out, nil
}

// Get returns one session by key.
func (m *Manager) Get(ctx context.Context, key string) (*Session, error) {
	result, err := m.gw.Call(ctx, "sessions.get", map[string]any{"key": key})
	if err != nil {
		return nil, err
	}
	var s Session
	if err := decode(result, &s); err != nil {
		return nil, fmt.Errorf("decode sessions.get: %w", err)
	}
	return &s, nil
}

// Create creates (or returns) the session for key on channel.
func (m *Manager) Create(ctx context.Context, key, channel string) (*Session, error) {
	result, err := m.gw.Call(ctx, "sessions.create", map[string]any{"key": key, "channel": channel})
	if err != nil {
		return nil, err
	}
	var s Session
	if err := decode(result, &s); err != nil {
		return nil, fmt.Errorf("decode sessions.create: %w", err)
	}
	m.logger.Debug("session created", "key", key, "channel", channel)
	return &s, nil
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, key string) error {
	_, err := m.gw.Call(ctx, "sessions.delete", map[string]any{"key": key})
	return err
}

// Reset clears a session's history while keeping its identity.
func (m *Manager) Reset(ctx context.Context, key string) error {
	_, err := m.gw.Call(ctx, "sessions.reset", map[string]any{"key": key})
	return err
}

// Update applies a partial update and returns the resulting session.
func (m *Manager) Update(ctx context.Context, key string, p Patch) (*Session, error) {
	params := map[string]any{"key": key}
	if p.Model != "" {
		params["model"] = p.Model
	}
	if p.ThinkingLevel != "" {
		params["thinkingLevel"] = p.ThinkingLevel
	}
	if p.VerboseLevel != "" {
		params["verboseLevel"] = p.VerboseLevel
	}
	result, err := m.gw.Call(ctx, "sessions.patch", params)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := decode(result, &s); err != nil {
		return nil, fmt.Errorf("decode sessions.patch: %w", err)
	}
	return &s, nil
}

// decode re-marshals a loosely typed RPC result into a typed value.
func decode(src any, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
