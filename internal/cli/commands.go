package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/application/agents"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/application/billing"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/application/channels"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/application/sessions"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway/protocol"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/tui"
	"github.com/spf13/cobra"
)

// --- health ---

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the gateway and print its status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger, closeLogs := newLogger(cfg)
		defer closeLogs()

		ctx, cancel := callContext()
		defer cancel()

		gw, cleanup, err := connectGateway(ctx, cfg, logger)
		if err != nil {
			fmt.Printf("Gateway:  %s\n", cfg.Gateway.URL)
			fmt.Printf("Status:   unreachable\n")
			fmt.Printf("Error:    %v\n", err)
			return nil
		}
		defer cleanup()

		h := gw.Health(ctx)
		fmt.Printf("Gateway:  %s\n", cfg.Gateway.URL)
		if h.Healthy {
			fmt.Printf("Status:   healthy\n")
			fmt.Printf("Latency:  %dms\n", h.LatencyMS)
			if h.Version != "" {
				fmt.Printf("Version:  %s\n", h.Version)
			}
		} else {
			fmt.Printf("Status:   unhealthy\n")
			if len(h.Details) > 0 {
				data, _ := json.Marshal(h.Details)
				fmt.Printf("Details:  %s\n", data)
			}
		}
		return nil
	},
}

// --- call ---

var callParams string

var callCmd = &cobra.Command{
	Use:   "call <method>",
	Short: "Invoke a raw gateway method",
	Long: `Invoke a gateway RPC method and print the JSON result.

Parameters are passed as a JSON object:

  openclaw call sessions.list
  openclaw call sessions.get --params '{"key":"agent:main:default"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params map[string]any
		if callParams != "" {
			if err := json.Unmarshal([]byte(callParams), &params); err != nil {
				return fmt.Errorf("parse --params: %w", err)
			}
		}

		cfg := loadConfig()
		logger, closeLogs := newLogger(cfg)
		defer closeLogs()

		ctx, cancel := callContext()
		defer cancel()

		gw, cleanup, err := connectGateway(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := gw.Call(ctx, args[0], params)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

// --- events ---

var eventsTypes []string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Stream agent events to stdout",
	Long: `Subscribe to the gateway event stream and print events as JSON lines
until interrupted.

  openclaw events
  openclaw events --type content --type done`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger, closeLogs := newLogger(cfg)
		defer closeLogs()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		gw, cleanup, err := connectGateway(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		types := make([]protocol.EventType, 0, len(eventsTypes))
		for _, t := range eventsTypes {
			types = append(types, protocol.EventType(strings.TrimSpace(t)))
		}
		sub, err := gw.Subscribe(ctx, types...)
		if err != nil {
			return err
		}
		defer sub.Close()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		enc := json.NewEncoder(os.Stdout)
		for {
			select {
			case <-sigCh:
				return nil
			case ev, ok := <-sub.Events():
				if !ok {
					fmt.Fprintln(os.Stderr, "event stream closed")
					return nil
				}
				enc.Encode(map[string]any{"event": ev.Type, "data": ev.Data})
			}
		}
	},
}

// --- chat ---

var (
	chatSession string
	chatAgent   string
	chatTimeout time.Duration
)

var chatCmd = &cobra.Command{
	Use:   "chat <message...>",
	Short: "Send a chat message and print the streamed reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger, closeLogs := newLogger(cfg)
		defer closeLogs()

		ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
		defer cancel()

		gw, cleanup, err := connectGateway(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		runner := agents.NewManager(gw, logger)
		message := strings.Join(args, " ")
		sessionKey := chatSession
		if sessionKey == "" {
			sessionKey = "agent:main:cli"
		}

		res, err := runner.Run(ctx, sessionKey, message, agents.RunOptions{
			AgentID: chatAgent,
			OnEvent: func(ev gateway.StreamEvent) {
				switch ev.Type {
				case protocol.EventContent:
					if text, ok := ev.Data["text"].(string); ok {
						fmt.Print(text)
					}
				case protocol.EventToolCall:
					if name, ok := ev.Data["name"].(string); ok {
						fmt.Fprintf(os.Stderr, "⚙ %s\n", name)
					}
				}
			},
		})
		if err != nil {
			return err
		}
		fmt.Println()
		for _, f := range res.Files {
			fmt.Fprintf(os.Stderr, "generated: %s\n", f)
		}
		return nil
	},
}

// --- tui ---

var (
	tuiAgent   string
	tuiSession string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive chat terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger, closeLogs := newLogger(cfg)
		defer closeLogs()

		ctx, cancel := callContext()
		defer cancel()

		gw, cleanup, err := connectGateway(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		return tui.Run(tui.Options{
			Gateway: gw,
			Config:  cfg,
			Logger:  logger,
			Agent:   tuiAgent,
			Session: tuiSession,
			Version: version,
		})
	},
}

// --- sessions ---

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage gateway sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(ctx context.Context, mgr *sessions.Manager) error {
			list, err := mgr.List(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No sessions.")
				return nil
			}
			fmt.Printf("%-32s %-10s %-24s %6s  %s\n", "KEY", "CHANNEL", "MODEL", "MSGS", "LAST ACTIVITY")
			for _, s := range list {
				last := ""
				if s.LastActivityAt > 0 {
					last = time.UnixMilli(s.LastActivityAt).Local().Format("2006-01-02 15:04")
				}
				fmt.Printf("%-32s %-10s %-24s %6d  %s\n", s.Key, s.Channel, s.Model, s.MessageCount, last)
			}
			return nil
		})
	},
}

var sessionsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(ctx context.Context, mgr *sessions.Manager) error {
			s, err := mgr.Get(ctx, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(s, "", "  ")
			fmt.Println(string(data))
			return nil
		})
	},
}

var sessionsCreateChannel string

var sessionsCreateCmd = &cobra.Command{
	Use:   "create <key>",
	Short: "Create a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(ctx context.Context, mgr *sessions.Manager) error {
			s, err := mgr.Create(ctx, args[0], sessionsCreateChannel)
			if err != nil {
				return err
			}
			fmt.Printf("Created: %s (%s)\n", s.Key, s.Channel)
			return nil
		})
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(ctx context.Context, mgr *sessions.Manager) error {
			if err := mgr.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted: %s\n", args[0])
			return nil
		})
	},
}

var sessionsResetCmd = &cobra.Command{
	Use:   "reset <key>",
	Short: "Reset a session's history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(ctx context.Context, mgr *sessions.Manager) error {
			if err := mgr.Reset(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Reset: %s\n", args[0])
			return nil
		})
	},
}

var (
	sessionsPatchModel    string
	sessionsPatchThinking string
)

var sessionsPatchCmd = &cobra.Command{
	Use:   "patch <key>",
	Short: "Update session settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(ctx context.Context, mgr *sessions.Manager) error {
			s, err := mgr.Update(ctx, args[0], sessions.Patch{
				Model:         sessionsPatchModel,
				ThinkingLevel: sessionsPatchThinking,
			})
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(s, "", "  ")
			fmt.Println(string(data))
			return nil
		})
	},
}

func withSessions(fn func(context.Context, *sessions.Manager) error) error {
	cfg := loadConfig()
	logger, closeLogs := newLogger(cfg)
	defer closeLogs()

	ctx, cancel := callContext()
	defer cancel()

	gw, cleanup, err := connectGateway(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(ctx, sessions.NewManager(gw, logger))
}

// --- agents / models / channels / usage ---

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List configured agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(func(ctx context.Context, gw gateway.Gateway, logger *slog.Logger) error {
			list, err := agents.NewManager(gw, logger).List(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No agents configured.")
				return nil
			}
			for _, a := range list {
				marker := " "
				if a.Default {
					marker = "*"
				}
				fmt.Printf(" %s %-16s %-24s %s\n", marker, a.ID, a.Model, a.Description)
			}
			return nil
		})
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(func(ctx context.Context, gw gateway.Gateway, logger *slog.Logger) error {
			list, err := agents.NewManager(gw, logger).Models(ctx)
			if err != nil {
				return err
			}
			for _, m := range list {
				fmt.Printf("  %-36s %s\n", m.ID, m.Provider)
			}
			return nil
		})
	},
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Show channel connector status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(func(ctx context.Context, gw gateway.Gateway, logger *slog.Logger) error {
			list, err := channels.NewManager(gw, logger).Status(ctx)
			if err != nil {
				return err
			}
			for _, c := range list {
				state := "disabled"
				if c.Enabled {
					state = "disconnected"
					if c.Connected {
						state = "connected"
					}
				}
				fmt.Printf("  %-12s %-12s %s\n", c.Name, state, c.Detail)
			}
			return nil
		})
	},
}

var usageSession string

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token and cost usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGateway(func(ctx context.Context, gw gateway.Gateway, logger *slog.Logger) error {
			u, err := billing.NewManager(gw, logger).Usage(ctx, usageSession)
			if err != nil {
				return err
			}
			scope := "all sessions"
			if usageSession != "" {
				scope = usageSession
			}
			fmt.Printf("Usage (%s):\n", scope)
			fmt.Printf("  Requests:       %d\n", u.Requests)
			fmt.Printf("  Input tokens:   %d\n", u.InputTokens)
			fmt.Printf("  Output tokens:  %d\n", u.OutputTokens)
			fmt.Printf("  Cost:           $%.4f\n", u.CostUSD)
			return nil
		})
	},
}

func withGateway(fn func(context.Context, gateway.Gateway, *slog.Logger) error) error {
	cfg := loadConfig()
	logger, closeLogs := newLogger(cfg)
	defer closeLogs()

	ctx, cancel := callContext()
	defer cancel()

	gw, cleanup, err := connectGateway(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(ctx, gw, logger)
}

func init() {
	callCmd.Flags().StringVar(&callParams, "params", "", "Method parameters as a JSON object")

	eventsCmd.Flags().StringArrayVar(&eventsTypes, "type", nil, "Event types to subscribe to (default: all)")

	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "Session key (default agent:main:cli)")
	chatCmd.Flags().StringVarP(&chatAgent, "agent", "a", "", "Agent to route the message to")
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 120*time.Second, "Overall run timeout")

	tuiCmd.Flags().StringVarP(&tuiAgent, "agent", "a", "main", "Agent for new sessions")
	tuiCmd.Flags().StringVarP(&tuiSession, "session", "s", "default", "Session name")

	sessionsCreateCmd.Flags().StringVar(&sessionsCreateChannel, "channel", "cli", "Channel for the new session")
	sessionsPatchCmd.Flags().StringVar(&sessionsPatchModel, "model", "", "Model override")
	sessionsPatchCmd.Flags().StringVar(&sessionsPatchThinking, "thinking", "", "Thinking level")

	usageCmd.Flags().StringVarP(&usageSession, "session", "s", "", "Limit to one session key")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsGetCmd)
	sessionsCmd.AddCommand(sessionsCreateCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsResetCmd)
	sessionsCmd.AddCommand(sessionsPatchCmd)
}
