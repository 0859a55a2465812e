// Package history persists conversation transcripts and a per-turn tool-run
// audit trail in SQLite. It is supplementary observability: the live
// pipeline state stays in the session package, in memory.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite transcript database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the store at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: sqlDB, path: path}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// OpenMemory creates an in-memory store (useful for testing).
func OpenMemory() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	s := &Store{db: sqlDB, path: ":memory:"}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    role TEXT NOT NULL CHECK(role IN ('user','assistant','system')),
    content TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at);

CREATE TABLE IF NOT EXISTS tool_runs (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    tool TEXT NOT NULL,
    stage TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('ok','tool_error','provider_error')),
    error TEXT NOT NULL DEFAULT '',
    input_rows INTEGER NOT NULL DEFAULT 0,
    output_rows INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_tool_runs_session ON tool_runs(session_id, created_at);
CREATE INDEX IF NOT EXISTS idx_tool_runs_tool ON tool_runs(tool);
`

// Message is one transcript row.
type Message struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// ToolRun records one tool execution attempt, successful or not.
type ToolRun struct {
	ID         string
	SessionID  string
	Tool       string
	Stage      string
	Status     string
	Error      string
	InputRows  int
	OutputRows int
	DurationMS int64
	CreatedAt  time.Time
}

// EnsureSession creates the session row if it does not exist.
func (s *Store) EnsureSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id) VALUES (?) ON CONFLICT(id) DO UPDATE SET updated_at = datetime('now')", id)
	if err != nil {
		return fmt.Errorf("ensuring session: %w", err)
	}
	return nil
}

// AppendMessage stores one transcript row and returns its id.
func (s *Store) AppendMessage(ctx context.Context, sessionID, role, content string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, session_id, role, content) VALUES (?, ?, ?, ?)",
		id, sessionID, role, content)
	if err != nil {
		return "", fmt.Errorf("inserting message: %w", err)
	}
	return id, nil
}

// RecentMessages returns the last limit messages in chronological order.
func (s *Store) RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at FROM (
			SELECT id, session_id, role, content, created_at, rowid
			FROM messages WHERE session_id = ?
			ORDER BY rowid DESC LIMIT ?
		) ORDER BY rowid ASC`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var ts string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &ts); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTimestamp(ts)
		out = append(out, m)
	}
	return out, rows.Err()
}

// RecordToolRun stores one tool-run audit row. A missing ID is generated.
func (s *Store) RecordToolRun(ctx context.Context, run ToolRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_runs (id, session_id, tool, stage, status, error, input_rows, output_rows, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SessionID, run.Tool, run.Stage, run.Status, run.Error,
		run.InputRows, run.OutputRows, run.DurationMS)
	if err != nil {
		return fmt.Errorf("inserting tool run: %w", err)
	}
	return nil
}

// ToolRuns returns all tool runs for a session, oldest first.
func (s *Store) ToolRuns(ctx context.Context, sessionID string) ([]ToolRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, tool, stage, status, error, input_rows, output_rows, duration_ms, created_at
		FROM tool_runs WHERE session_id = ? ORDER BY rowid ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying tool runs: %w", err)
	}
	defer rows.Close()

	var out []ToolRun
	for rows.Next() {
		var r ToolRun
		var ts string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Tool, &r.Stage, &r.Status, &r.Error,
			&r.InputRows, &r.OutputRows, &r.DurationMS, &ts); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTimestamp(ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and, via cascade, its rows.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func parseTimestamp(ts string) time.Time {
	if t, err := time.Parse(time.DateTime, ts); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05Z", ts); err == nil {
		return t
	}
	return time.Time{}
}
