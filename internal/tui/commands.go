package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/application/sessions"
)

// Command is a TUI slash command.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Category    string
	Handler     func(m *Model, args []string) (string, error)
}

func getBuiltinCommands() []Command {
	return []Command{
		{Name: "sessions", Aliases: []string{"session", "s"}, Description: "List sessions", Category: "Session", Handler: cmdListSessions},
		{Name: "switch", Aliases: []string{"sw"}, Description: "Switch to a session", Category: "Session", Handler: cmdSwitchSession},
		{Name: "new", Aliases: []string{"n"}, Description: "Start a new session", Category: "Session", Handler: cmdNewSession},
		{Name: "delete", Aliases: []string{"del", "rm"}, Description: "Delete a session", Category: "Session", Handler: cmdDeleteSession},
		{Name: "reset", Aliases: nil, Description: "Reset current session", Category: "Session", Handler: cmdResetSession},

		{Name: "model", Aliases: []string{"m"}, Description: "Switch session model", Category: "Model", Handler: cmdSwitchModel},
		{Name: "models", Aliases: []string{"ml"}, Description: "List available models", Category: "Model", Handler: cmdListModels},

		{Name: "clear", Aliases: []string{"cls", "c"}, Description: "Clear chat view", Category: "System", Handler: cmdClearChat},
		{Name: "reload", Aliases: []string{"r"}, Description: "Reload session index", Category: "System", Handler: cmdReload},
		{Name: "health", Aliases: nil, Description: "Probe the gateway", Category: "System", Handler: cmdHealth},
		{Name: "usage", Aliases: []string{"tokens"}, Description: "Show token usage", Category: "System", Handler: cmdUsage},
		{Name: "help", Aliases: []string{"h", "?"}, Description: "Show help", Category: "System", Handler: cmdHelp},
		{Name: "quit", Aliases: []string{"q", "exit"}, Description: "Quit", Category: "System", Handler: cmdQuit},
	}
}

func findCommand(name string) *Command {
	name = strings.ToLower(strings.TrimSpace(name))
	cmds := getBuiltinCommands()
	for i := range cmds {
		if cmds[i].Name == name {
			return &cmds[i]
		}
		for _, alias := range cmds[i].Aliases {
			if alias == name {
				return &cmds[i]
			}
		}
	}
	return nil
}

func parseCommand(input string) (name string, args []string) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", nil
	}
	input = strings.TrimPrefix(input, "/")
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func cmdListSessions(m *Model, args []string) (string, error) {
	if len(m.sessions) == 0 {
		return "No sessions found. Run /reload to refresh.", nil
	}
	var b strings.Builder
	b.WriteString("Sessions:\n")
	for i, s := range m.sessions {
		cur := " "
		if s.Key == m.currentSession {
			cur = "*"
		}
		b.WriteString(fmt.Sprintf(" %s [%d] %s (%d msgs, %s)\n", cur, i, s.Key, s.MessageCount, relativeTime(s.UpdatedAt)))
	}
	return b.String(), nil
}

func cmdSwitchSession(m *Model, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: /switch <name-or-index>", nil
	}
	target := strings.Join(args, " ")
	var idx int
	if _, err := fmt.Sscanf(target, "%d", &idx); err == nil && idx >= 0 && idx < len(m.sessions) {
		m.currentSession = m.sessions[idx].Key
		m.lines = nil
		return fmt.Sprintf("Switched to: %s", m.currentSession), nil
	}
	for _, s := range m.sessions {
		if strings.Contains(strings.ToLower(s.Key), strings.ToLower(target)) {
			m.currentSession = s.Key
			m.lines = nil
			return fmt.Sprintf("Switched to: %s", m.currentSession), nil
		}
	}
	return fmt.Sprintf("Session not found: %s", target), nil
}

func cmdNewSession(m *Model, args []string) (string, error) {
	m.startNewSession()
	return fmt.Sprintf("Created: %s", m.currentSession), nil
}

func cmdDeleteSession(m *Model, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: /delete <key>", nil
	}
	ctx, cancel := commandContext()
	defer cancel()
	key := strings.Join(args, " ")
	if err := m.sessMgr.Delete(ctx, key); err != nil {
		return "", err
	}
	if key == m.currentSession {
		m.startNewSession()
	}
	return fmt.Sprintf("Deleted: %s", key), nil
}

func cmdResetSession(m *Model, args []string) (string, error) {
	ctx, cancel := commandContext()
	defer cancel()
	if err := m.sessMgr.Reset(ctx, m.currentSession); err != nil {
		return "", err
	}
	m.lines = nil
	return "Session reset.", nil
}

func cmdSwitchModel(m *Model, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: /model <name>", nil
	}
	ctx, cancel := commandContext()
	defer cancel()
	model := strings.Join(args, " ")
	s, err := m.sessMgr.Update(ctx, m.currentSession, sessions.Patch{Model: model})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Model: %s", s.Model), nil
}

func cmdListModels(m *Model, args []string) (string, error) {
	ctx, cancel := commandContext()
	defer cancel()
	models, err := m.runner.Models(ctx)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "No models reported by the gateway.", nil
	}
	var b strings.Builder
	b.WriteString("Models:\n")
	for _, model := range models {
		b.WriteString(fmt.Sprintf("  %s", model.ID))
		if model.Provider != "" {
			b.WriteString(" (" + model.Provider + ")")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func cmdClearChat(m *Model, args []string) (string, error) {
	m.lines = nil
	m.updateViewport()
	return "Chat cleared.", nil
}

func cmdReload(m *Model, args []string) (string, error) {
	return "__RELOAD__", nil
}

func cmdHealth(m *Model, args []string) (string, error) {
	ctx, cancel := commandContext()
	defer cancel()
	h := m.opts.Gateway.Health(ctx)
	m.reachable = h.Healthy
	if !h.Healthy {
		return fmt.Sprintf("Gateway unhealthy: %v", h.Details), nil
	}
	return fmt.Sprintf("Gateway healthy (%dms, %s)", h.LatencyMS, h.Version), nil
}

func cmdUsage(m *Model, args []string) (string, error) {
	ctx, cancel := commandContext()
	defer cancel()
	result, err := m.opts.Gateway.Call(ctx, "billing.usage", map[string]any{"sessionKey": m.currentSession})
	if err != nil {
		return "", err
	}
	in, _ := result["inputTokens"].(float64)
	out, _ := result["outputTokens"].(float64)
	cost, _ := result["costUsd"].(float64)
	return fmt.Sprintf("Usage:\n  Input:  %.0f\n  Output: %.0f\n  Cost:   $%.4f", in, out, cost), nil
}

func cmdHelp(m *Model, args []string) (string, error) {
	cmds := getBuiltinCommands()
	cats := make(map[string][]Command)
	for _, cmd := range cmds {
		cats[cmd.Category] = append(cats[cmd.Category], cmd)
	}
	var b strings.Builder
	b.WriteString("Commands:\n\n")
	keys := make([]string, 0, len(cats))
	for k := range cats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, cat := range keys {
		b.WriteString(fmt.Sprintf("[%s]\n", cat))
		for _, cmd := range cats[cat] {
			als := ""
			if len(cmd.Aliases) > 0 {
				als = fmt.Sprintf(" (/%s)", strings.Join(cmd.Aliases, ", /"))
			}
			b.WriteString(fmt.Sprintf("  /%s%s - %s\n", cmd.Name, als, cmd.Description))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func cmdQuit(m *Model, args []string) (string, error) {
	return "__QUIT__", nil
}
