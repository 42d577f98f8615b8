package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteCreatesDatedFile(t *testing.T) {
	dir := t.TempDir()
	m, err := New(Config{Dir: dir, Stderr: false})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer m.Close()

	log := m.NewLogger()
	log.Info("gateway connected", "url", "ws://127.0.0.1:18789")

	data, err := os.ReadFile(m.CurrentLogFile())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "gateway connected") {
		t.Errorf("log content = %q", data)
	}
	if want := "openclaw-" + time.Now().Format("2006-01-02") + ".log"; filepath.Base(m.CurrentLogFile()) != want {
		t.Errorf("file = %s; want %s", m.CurrentLogFile(), want)
	}
}

func TestCleanupRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "openclaw-2020-01-01.log")
	if err := os.WriteFile(old, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().AddDate(0, 0, -90)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	m, err := New(Config{Dir: dir, MaxAgeDays: 30, Stderr: false})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer m.Close()

	removed, err := m.Cleanup()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d; want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("stale file still present")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v; want %v", tc.in, got, tc.want)
		}
	}
}
