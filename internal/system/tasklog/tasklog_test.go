package tasklog

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Dir: t.TempDir(), Enabled: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordCallAndRecent(t *testing.T) {
	s := openTestStore(t)

	s.RecordCall("sessions.list", nil, nil, 12*time.Millisecond)
	s.RecordCall("chat.send", map[string]any{"sessionKey": "main", "message": "hi"}, nil, 340*time.Millisecond)
	s.RecordCall("config.patch", map[string]any{"key": "x"}, errors.New("read-only config"), 5*time.Millisecond)

	recs, err := s.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d; want 3", len(recs))
	}

	// Newest first.
	if recs[0].Method != "config.patch" || recs[0].Status != StatusError {
		t.Errorf("recs[0] = %+v", recs[0])
	}
	if recs[0].ErrorMsg != "read-only config" {
		t.Errorf("error message = %q", recs[0].ErrorMsg)
	}
	if recs[1].Method != "chat.send" || !strings.Contains(recs[1].Params, "sessionKey") {
		t.Errorf("recs[1] = %+v", recs[1])
	}
	if recs[2].DurationMs != 12 {
		t.Errorf("duration = %d", recs[2].DurationMs)
	}
}

func TestRecordLifecycle(t *testing.T) {
	s := openTestStore(t)

	s.RecordLifecycle(ActionConnect, "ws://127.0.0.1:18789", nil)
	s.RecordLifecycle(ActionDisconnect, "connection lost", errors.New("eof"))

	recs, err := s.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d", len(recs))
	}
	if recs[1].Action != ActionConnect || recs[0].Action != ActionDisconnect {
		t.Errorf("actions = %s, %s", recs[1].Action, recs[0].Action)
	}
	if recs[0].Status != StatusError {
		t.Errorf("status = %s", recs[0].Status)
	}
}

func TestParamsDigestTruncated(t *testing.T) {
	s := openTestStore(t)

	s.RecordCall("chat.send", map[string]any{"message": strings.Repeat("x", 5000)}, nil, 0)

	recs, err := s.Recent(1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recs[0].Params) > maxParamsChars+3 {
		t.Errorf("params not truncated: %d chars", len(recs[0].Params))
	}
	if !strings.HasSuffix(recs[0].Params, "...") {
		t.Errorf("expected truncation marker, got tail %q", recs[0].Params[len(recs[0].Params)-8:])
	}
}

func TestCleanupRecordCap(t *testing.T) {
	s, err := Open(Config{Dir: t.TempDir(), MaxRecords: 2})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	for i := 0; i < 5; i++ {
		s.RecordCall("health", nil, nil, 0)
	}
	deleted, err := s.Cleanup()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d; want 3", deleted)
	}
	n, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d; want 2", n)
	}
}
