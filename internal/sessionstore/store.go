package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"shutterpro/internal/config"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS captures (
    token       TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL,
    shot        INTEGER NOT NULL,
    mode        TEXT NOT NULL,
    status      TEXT NOT NULL,
    filename    TEXT NOT NULL DEFAULT '',
    remote_path TEXT NOT NULL DEFAULT '',
    error       TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_captures_session ON captures(session_id, shot);
`

// ErrNotFound is returned when no capture carries the requested token.
var ErrNotFound = errors.New("capture not found")

// Store is the per-session capture journal backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database in the log
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "session.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// NewCapture journals a freshly fired capture as pending.
func (s *Store) NewCapture(ctx context.Context, token, sessionID string, shot int, mode string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO captures (token, session_id, shot, mode, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		token, sessionID, shot, mode, StatusPending, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert capture: %w", err)
	}
	return nil
}

// SetStatus moves a capture to a new lifecycle state.
func (s *Store) SetStatus(ctx context.Context, token string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	return s.update(ctx, token,
		`UPDATE captures SET status = ?, updated_at = ? WHERE token = ?`,
		status, nowStamp(), token)
}

// SetFile records the paired file names alongside a status change.
func (s *Store) SetFile(ctx context.Context, token, filename, remotePath string) error {
	return s.update(ctx, token,
		`UPDATE captures SET status = ?, filename = ?, remote_path = ?, updated_at = ? WHERE token = ?`,
		StatusDownloaded, filename, remotePath, nowStamp(), token)
}

// MarkFailed moves a capture to failed with a cause.
func (s *Store) MarkFailed(ctx context.Context, token, cause string) error {
	return s.update(ctx, token,
		`UPDATE captures SET status = ?, error = ?, updated_at = ? WHERE token = ?`,
		StatusFailed, cause, nowStamp(), token)
}

func (s *Store) update(ctx context.Context, token, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update capture: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, token)
	}
	return nil
}

// GetByToken returns one journal row.
func (s *Store) GetByToken(ctx context.Context, token string) (*Capture, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT token, session_id, shot, mode, status, filename, remote_path, error, created_at, updated_at
         FROM captures WHERE token = ?`, token)
	capture, err := scanCapture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, token)
	}
	return capture, err
}

// List returns every capture in a session, in shot order.
func (s *Store) List(ctx context.Context, sessionID string) ([]*Capture, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token, session_id, shot, mode, status, filename, remote_path, error, created_at, updated_at
         FROM captures WHERE session_id = ? ORDER BY shot`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var captures []*Capture
	for rows.Next() {
		capture, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		captures = append(captures, capture)
	}
	return captures, rows.Err()
}

// Summary counts session captures per status.
func (s *Store) Summary(ctx context.Context, sessionID string) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM captures WHERE session_id = ? GROUP BY status`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("summarize captures: %w", err)
	}
	defer rows.Close()

	summary := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summary[status] = count
	}
	return summary, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapture(row rowScanner) (*Capture, error) {
	var capture Capture
	var created, updated string
	err := row.Scan(&capture.Token, &capture.SessionID, &capture.Shot, &capture.Mode,
		&capture.Status, &capture.Filename, &capture.RemotePath, &capture.Error,
		&created, &updated)
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		capture.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		capture.UpdatedAt = t
	}
	return &capture, nil
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
