// Package logger provides file-backed logging for the SDK's tooling. Log
// files live under ~/.openclaw/logs, rotate daily, and can dual-write to
// stderr so failures are diagnosable even when the log directory is not.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Config configures the log manager.
type Config struct {
	Dir        string     // log directory, default ~/.openclaw/logs
	Level      slog.Level // minimum level
	MaxAgeDays int        // retention in days, 0 keeps everything
	Stderr     bool       // dual-write to stderr
}

// Manager owns the lifecycle of the log files.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	file    *os.File
	curDate string
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Dir:        defaultLogDir(),
		Level:      slog.LevelInfo,
		MaxAgeDays: 30,
		Stderr:     true,
	}
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".openclaw", "logs")
	}
	return filepath.Join(home, ".openclaw", "logs")
}

// ParseLevel maps a config string onto a slog level. Unknown strings mean
// info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a manager and opens the current log file.
func New(cfg Config) (*Manager, error) {
	if cfg.Dir == "" {
		cfg.Dir = defaultLogDir()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	m := &Manager{cfg: cfg}
	m.mu.Lock()
	err := m.rotateIfNeededLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewLogger returns a file-backed slog.Logger.
func (m *Manager) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(m, &slog.HandlerOptions{Level: m.cfg.Level}))
}

// Write implements io.Writer with date-based rotation and optional stderr
// dual-write.
func (m *Manager) Write(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.rotateIfNeededLocked()

	if m.file != nil {
		n, err = m.file.Write(p)
	}
	if m.cfg.Stderr {
		_, _ = os.Stderr.Write(p)
	}
	return n, err
}

// Close closes the current log file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file != nil {
		err := m.file.Close()
		m.file = nil
		return err
	}
	return nil
}

// CurrentLogFile returns the active log file path.
func (m *Manager) CurrentLogFile() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file != nil {
		return m.file.Name()
	}
	return logFileName(m.cfg.Dir, todayDate())
}

func (m *Manager) rotateIfNeededLocked() error {
	today := todayDate()
	if m.file != nil && m.curDate == today {
		return nil
	}
	if m.file != nil {
		_ = m.file.Close()
		m.file = nil
	}

	f, err := os.OpenFile(logFileName(m.cfg.Dir, today), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	m.file = f
	m.curDate = today
	return nil
}

// Cleanup removes log files older than the retention window. Returns the
// number removed.
func (m *Manager) Cleanup() (int, error) {
	if m.cfg.MaxAgeDays <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().AddDate(0, 0, -m.cfg.MaxAgeDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(m.cfg.Dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func todayDate() string {
	return time.Now().Format("2006-01-02")
}

func logFileName(dir, date string) string {
	return filepath.Join(dir, fmt.Sprintf("openclaw-%s.log", date))
}
