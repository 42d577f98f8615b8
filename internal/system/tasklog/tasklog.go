// Package tasklog provides a SQLite-backed audit log of gateway traffic.
// Every call's method, parameter digest, outcome and duration is recorded,
// along with connection lifecycle events, so a misbehaving session can be
// reconstructed after the fact. Storage: ~/.openclaw/state/tasks.db,
// decoupled from all business data.
package tasklog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Action types.
const (
	ActionCall       = "call"       // request/response exchange
	ActionConnect    = "connect"    // connection established
	ActionDisconnect = "disconnect" // connection closed or lost
	ActionSubscribe  = "subscribe"  // event subscription opened
)

// Statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// maxParamsChars bounds the recorded parameter digest so one oversized call
// cannot bloat the database.
const maxParamsChars = 2000

// Config configures the audit store.
type Config struct {
	Dir        string `json:"dir"`        // database directory, default ~/.openclaw/state
	MaxAgeDays int    `json:"maxAgeDays"` // retention in days, 0 keeps everything
	MaxRecords int    `json:"maxRecords"` // record cap, 0 unlimited
	Enabled    bool   `json:"enabled"`
}

// Record is one audit entry.
type Record struct {
	ID         int64  `json:"id"`
	Action     string `json:"action"`
	Method     string `json:"method"`
	Params     string `json:"params"`
	Status     string `json:"status"`
	ErrorMsg   string `json:"errorMessage"`
	DurationMs int64  `json:"durationMs"`
	CreatedAt  string `json:"createdAt"`
}

// Store is the audit storage engine.
type Store struct {
	dbPath string
	db     *sql.DB
	cfg    Config
	mu     sync.Mutex
}

// DefaultConfig returns the default audit configuration.
func DefaultConfig() Config {
	return Config{
		Dir:        defaultStateDir(),
		MaxAgeDays: 90,
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".openclaw", "state")
	}
	return filepath.Join(home, ".openclaw", "state")
}

// Open creates the store, its directory and its schema.
func Open(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		cfg.Dir = defaultStateDir()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, "tasks.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open task db: %w", err)
	}

	s := &Store{dbPath: dbPath, db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	action TEXT NOT NULL,
	method TEXT NOT NULL DEFAULT '',
	params TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
CREATE INDEX IF NOT EXISTS idx_tasks_method ON tasks(method);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate task db: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// RecordCall logs one request/response exchange.
func (s *Store) RecordCall(method string, params map[string]any, callErr error, duration time.Duration) {
	status := StatusSuccess
	errMsg := ""
	if callErr != nil {
		status = StatusError
		errMsg = callErr.Error()
	}
	s.insert(Record{
		Action:     ActionCall,
		Method:     method,
		Params:     digestParams(params),
		Status:     status,
		ErrorMsg:   errMsg,
		DurationMs: duration.Milliseconds(),
	})
}

// RecordLifecycle logs a connect/disconnect/subscribe event.
func (s *Store) RecordLifecycle(action, detail string, err error) {
	status := StatusSuccess
	errMsg := ""
	if err != nil {
		status = StatusError
		errMsg = err.Error()
	}
	s.insert(Record{
		Action:   action,
		Method:   detail,
		Status:   status,
		ErrorMsg: errMsg,
	})
}

func (s *Store) insert(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Best effort: auditing must never fail the traffic it observes.
	s.db.Exec(
		`INSERT INTO tasks (action, method, params, status, error_message, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Action, rec.Method, rec.Params, rec.Status, rec.ErrorMsg, rec.DurationMs,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
}

// Recent returns the newest n records, newest first.
func (s *Store) Recent(n int) ([]Record, error) {
	if n <= 0 {
		n = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, action, method, params, status, error_message, duration_ms, created_at
		 FROM tasks ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Action, &r.Method, &r.Params, &r.Status, &r.ErrorMsg, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns one record by ID, or nil when it does not exist.
func (s *Store) Get(id int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var r Record
	err := s.db.QueryRow(
		`SELECT id, action, method, params, status, error_message, duration_ms, created_at
		 FROM tasks WHERE id = ?`, id).
		Scan(&r.ID, &r.Action, &r.Method, &r.Params, &r.Status, &r.ErrorMsg, &r.DurationMs, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}

// Cleanup enforces the retention window and record cap. Returns deleted
// rows.
func (s *Store) Cleanup() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	if s.cfg.MaxAgeDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -s.cfg.MaxAgeDays).UTC().Format(time.RFC3339Nano)
		res, err := s.db.Exec(`DELETE FROM tasks WHERE created_at < ?`, cutoff)
		if err != nil {
			return total, err
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	if s.cfg.MaxRecords > 0 {
		res, err := s.db.Exec(
			`DELETE FROM tasks WHERE id NOT IN (SELECT id FROM tasks ORDER BY id DESC LIMIT ?)`,
			s.cfg.MaxRecords)
		if err != nil {
			return total, err
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

// digestParams serializes params for storage, truncated and with nothing
// assumed about their shape.
func digestParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("unserializable params (%d keys)", len(params))
	}
	runes := []rune(string(data))
	if len(runes) > maxParamsChars {
		return string(runes[:maxParamsChars]) + "..."
	}
	return string(data)
}
