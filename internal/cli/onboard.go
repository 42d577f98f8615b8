package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/config"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
	"github.com/spf13/cobra"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Interactive first-time setup",
	Long: `Walk through first-time setup: point the client at a gateway,
verify the connection and write the config file.`,
	RunE: runOnboard,
}

var (
	onboardAccent = lipgloss.NewStyle().Foreground(lipgloss.Color("#f97316"))
	onboardMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func runOnboard(cmd *cobra.Command, args []string) error {
	fmt.Println()
	fmt.Println("  " + onboardAccent.Bold(true).Render("OpenClaw setup"))
	fmt.Println("  " + onboardMuted.Render("──────────────────────────────────────────"))

	cfg := config.Default()
	if existing, err := config.Load(); err == nil {
		cfg = existing
	}

	url := cfg.Gateway.URL
	token := cfg.Gateway.Token
	logLevel := cfg.Logs.Level
	if logLevel == "" {
		logLevel = "info"
	}
	auditEnabled := cfg.Audit.Enabled

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gateway URL").
				Description("WebSocket endpoint of your OpenClaw gateway").
				Placeholder(gateway.DefaultGatewayURL).
				Value(&url).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return nil
					}
					if !strings.HasPrefix(s, "ws://") && !strings.HasPrefix(s, "wss://") {
						return fmt.Errorf("must start with ws:// or wss://")
					}
					return nil
				}),
			huh.NewInput().
				Title("Auth token").
				Description("Leave empty if the gateway does not require one").
				EchoMode(huh.EchoModePassword).
				Value(&token),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&logLevel),
			huh.NewConfirm().
				Title("Audit log").
				Description("Record every gateway call in a local SQLite database").
				Value(&auditEnabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup aborted: %w", err)
	}

	url = strings.TrimSpace(url)
	if url == "" {
		url = gateway.DefaultGatewayURL
	}
	cfg.Gateway.URL = url
	cfg.Gateway.Token = strings.TrimSpace(token)
	cfg.Logs.Level = logLevel
	cfg.Audit.Enabled = auditEnabled

	// Verify the gateway before persisting.
	fmt.Println()
	fmt.Printf("  Probing %s ...\n", url)
	if h := probeGateway(cfg); h.Healthy {
		fmt.Println("  " + onboardAccent.Render("✓") + fmt.Sprintf(" gateway healthy (%dms)", h.LatencyMS))
	} else {
		fmt.Println("  " + onboardMuted.Render("✗ gateway unreachable, saving config anyway"))
		if reason, ok := h.Details["reason"].(string); ok && reason != "" {
			fmt.Println("    " + onboardMuted.Render(reason))
		}
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Println()
	fmt.Printf("  Wrote %s\n", config.Path())
	fmt.Println("  " + onboardMuted.Render("Try: openclaw health, openclaw chat \"hello\", openclaw tui"))
	return nil
}

func probeGateway(cfg *config.Config) gateway.HealthStatus {
	logger, closeLogs := newLogger(cfg)
	defer closeLogs()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := gateway.NewClient(gateway.Options{
		URL:         cfg.Gateway.URL,
		Token:       cfg.Gateway.Token,
		ClientName:  cfg.Gateway.ClientName,
		DialTimeout: cfg.Gateway.DialTimeoutDuration(),
		Logger:      logger,
	})
	if err := client.Connect(ctx); err != nil {
		return gateway.HealthStatus{Healthy: false, Details: map[string]any{"reason": err.Error()}}
	}
	defer client.Close()
	return client.Health(ctx)
}
