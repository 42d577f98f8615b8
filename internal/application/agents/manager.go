// Package agents exposes the agent catalog and drives streamed chat runs.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway/protocol"
)

// Agent describes one configured agent on the gateway.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Model       string `json:"model,omitempty"`
	Default     bool   `json:"default,omitempty"`
}

// Model describes one model available for routing.
type Model struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider,omitempty"`
}

// Manager covers the agents.* and models.* RPC surface.
type Manager struct {
	gw     gateway.Gateway
	logger *slog.Logger
}

// NewManager creates an agent manager over gw.
func NewManager(gw gateway.Gateway, logger *slog.Logger) *Manager {
	return &Manager{gw: gw, logger: logger.With("component", "agents")}
}

// List returns the configured agents.
func (m *Manager) List(ctx context.Context) ([]Agent, error) {
	result, err := m.gw.Call(ctx, "agents.list", nil)
	if err != nil {
		return nil, err
	}
	var out []Agent
	if err := decode(result["result"], &out); err != nil {
		return nil, fmt.Errorf("decode agents.list: %w", err)
	}
	return out, nil
}

// Models returns the models the gateway can route to.
func (m *Manager) Models(ctx context.Context) ([]Model, error) {
	result, err := m.gw.Call(ctx, "models.list", nil)
	if err != nil {
		return nil, err
	}
	var out []Model
	if err := decode(result["result"], &out); err != nil {
		return nil, fmt.Errorf("decode models.list: %w", err)
	}
	return out, nil
}

// RunResult is the outcome of one streamed chat run.
type RunResult struct {
	// Reply is the concatenated content of the run.
	Reply string
	// Files lists paths of files the agent generated, in emission order.
	Files []string
}

// RunOptions tunes a single Run. The zero value is usable.
type RunOptions struct {
	// AgentID routes the message to a specific agent when set.
	AgentID string
	// OnEvent, when set, observes every stream event of the run as it
	// arrives. It is called from the Run goroutine; slow handlers slow
	// the run, not the connection.
	OnEvent func(gateway.StreamEvent)
}

// Run sends message on the session identified by sessionKey and blocks
// until the run ends, assembling the streamed reply. The subscription is
// opened before chat.send so no early events are missed. A stream error
// event ends the run with a gateway error; ctx cancellation ends it with
// ctx.Err().
func (m *Manager) Run(ctx context.Context, sessionKey, message string, opts RunOptions) (*RunResult, error) {
	sub, err := m.gw.Subscribe(ctx,
		protocol.EventThinking,
		protocol.EventToolCall,
		protocol.EventToolResult,
		protocol.EventFileGenerated,
		protocol.EventContent,
		protocol.EventError,
		protocol.EventDone,
	)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	params := map[string]any{"sessionKey": sessionKey, "message": message}
	if opts.AgentID != "" {
		params["agentId"] = opts.AgentID
	}
	if _, err := m.gw.Call(ctx, "chat.send", params); err != nil {
		return nil, err
	}

	var reply strings.Builder
	var files []string
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				// Connection ended the stream before a terminal event.
				return nil, gateway.NewConnectionError(gateway.CodeConnectionLost, "stream ended before run completed", nil)
			}
			if opts.OnEvent != nil {
				opts.OnEvent(ev)
			}
			switch ev.Type {
			case protocol.EventContent:
				if text, ok := ev.Data["text"].(string); ok {
					reply.WriteString(text)
				}
			case protocol.EventFileGenerated:
				if path, ok := ev.Data["path"].(string); ok {
					files = append(files, path)
				}
			case protocol.EventError:
				msg, _ := ev.Data["message"].(string)
				if msg == "" {
					msg = "run failed"
				}
				return nil, gateway.NewGatewayError(gateway.CodeRemoteError, msg)
			case protocol.EventDone:
				return &RunResult{Reply: reply.String(), Files: files}, nil
			}
		}
	}
}

func decode(src any, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
