// Package history persists an audit record per terminal upload state in an
// embedded SQLite database. Recording is best-effort from the caller's
// point of view — the uploader logs and continues when a write fails.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".

	"github.com/ticketdrop/ticketdrop/internal/uploader"
)

// Entry is one audit row as served to API consumers.
type Entry struct {
	ID            string    `json:"id"`
	BugID         string    `json:"bug_id"`
	FileName      string    `json:"file_name"`
	SizeBytes     int64     `json:"size_bytes"`
	FileID        string    `json:"file_id,omitempty"`
	State         string    `json:"state"`
	CommentPosted bool      `json:"comment_posted"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store implements uploader.Recorder on an embedded SQLite database
// with WAL mode.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	insertStmt *sql.Stmt
	recentStmt *sql.Stmt
}

// NewStore opens the database at dbPath, applies migrations, and prepares
// the repeated statements. Use ":memory:" for tests.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("opening upload history database", "path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite: %w", err)
	}

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: setting journal mode: %w", err)
	}

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, logger: logger}

	s.insertStmt, err = db.PrepareContext(ctx, `
		INSERT INTO uploads (id, bug_id, file_name, size_bytes, file_id, state, comment_posted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: preparing insert: %w", err)
	}

	s.recentStmt, err = db.PrepareContext(ctx, `
		SELECT id, bug_id, file_name, size_bytes, file_id, state, comment_posted, created_at
		FROM uploads ORDER BY created_at DESC, id LIMIT ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history: preparing recent query: %w", err)
	}

	return s, nil
}

// Close releases the prepared statements and the database handle.
func (s *Store) Close() error {
	s.insertStmt.Close()
	s.recentStmt.Close()

	return s.db.Close()
}

// Record inserts the audit row for one terminal upload state.
func (s *Store) Record(ctx context.Context, rec uploader.Record) error {
	posted := 0
	if rec.CommentPosted {
		posted = 1
	}

	_, err := s.insertStmt.ExecContext(ctx,
		uuid.NewString(),
		rec.BugID,
		rec.FileName,
		rec.Size,
		rec.FileID,
		string(rec.State),
		posted,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("history: inserting upload record: %w", err)
	}

	return nil
}

// Recent returns up to limit audit rows, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.recentStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("history: querying recent uploads: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			e       Entry
			posted  int
			created string
		)

		if err := rows.Scan(&e.ID, &e.BugID, &e.FileName, &e.SizeBytes, &e.FileID, &e.State, &posted, &created); err != nil {
			return nil, fmt.Errorf("history: scanning upload record: %w", err)
		}

		e.CommentPosted = posted != 0

		ts, parseErr := time.Parse(time.RFC3339Nano, created)
		if parseErr != nil {
			s.logger.Warn("invalid created_at in upload record, using zero time",
				slog.String("id", e.ID),
				slog.String("raw", created),
			)
		}

		e.CreatedAt = ts

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating upload records: %w", err)
	}

	return entries, nil
}
