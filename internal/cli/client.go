package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/config"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway"
	syslogger "github.com/masteryodaa/openclaw-sdk-sub002/internal/system/logger"
	"github.com/masteryodaa/openclaw-sdk-sub002/internal/system/tasklog"
)

// loadConfig loads the user config, falling back to defaults.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: config load failed, using defaults: %v\n", err)
		cfg = config.Default()
	}
	if flagURL != "" {
		cfg.Gateway.URL = flagURL
	}
	if flagToken != "" {
		cfg.Gateway.Token = flagToken
	}
	return cfg
}

// newLogger builds the file logger from config. The returned cleanup
// closes the underlying log file.
func newLogger(cfg *config.Config) (*slog.Logger, func()) {
	level := syslogger.ParseLevel(cfg.Logs.Level)
	if flagVerbose {
		level = slog.LevelDebug
	}
	mgr, err := syslogger.New(syslogger.Config{
		Dir:        cfg.Logs.Dir,
		Level:      level,
		MaxAgeDays: cfg.Logs.MaxAgeDays,
		Stderr:     flagVerbose || cfg.Logs.Stderr,
	})
	if err != nil {
		// Fall back to stderr-only logging.
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return logger, func() {}
	}
	return mgr.NewLogger(), func() { mgr.Close() }
}

// connectGateway builds a circuit-broken gateway from config, wraps it
// with audit logging when enabled, and connects it. The returned cleanup
// closes the connection and the audit store.
func connectGateway(ctx context.Context, cfg *config.Config, logger *slog.Logger) (gateway.Gateway, func(), error) {
	opts := gateway.Options{
		URL:            cfg.Gateway.URL,
		Token:          cfg.Gateway.Token,
		ClientName:     cfg.Gateway.ClientName,
		ClientVersion:  version,
		DialTimeout:    cfg.Gateway.DialTimeoutDuration(),
		CallTimeout:    cfg.Gateway.CallTimeoutDuration(),
		EventHighWater: cfg.Events.HighWater,
		Logger:         logger,
	}

	var gw gateway.Gateway = gateway.NewLocal(opts)
	var store *tasklog.Store

	if cfg.Audit.Enabled {
		s, err := tasklog.Open(tasklog.Config{
			Dir:        cfg.Audit.Dir,
			MaxAgeDays: cfg.Audit.MaxAgeDays,
			Enabled:    true,
		})
		if err != nil {
			logger.Warn("audit log unavailable", "error", err)
		} else {
			store = s
			gw = gateway.NewAudited(gw, store)
		}
	}

	cleanup := func() {
		gw.Close()
		if store != nil {
			store.Close()
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Gateway.DialTimeoutDuration())
	defer cancel()
	if err := gw.Connect(dialCtx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Gateway.URL, err)
	}
	return gw, cleanup, nil
}

// callContext returns a context for a single CLI invocation.
func callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
