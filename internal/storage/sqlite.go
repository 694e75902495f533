package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/freeplan/internal/models"
	_ "modernc.org/sqlite"
)

// SQLite is a single-file program store for running without Postgres.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		tags       TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'draft',
		variants   INTEGER NOT NULL,
		document   BLOB NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating programs table: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS import_logs (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at      TEXT NOT NULL,
		source          TEXT NOT NULL,
		status          TEXT NOT NULL,
		files_read      INTEGER NOT NULL DEFAULT 0,
		programs_stored INTEGER NOT NULL DEFAULT 0,
		duration_ms     INTEGER,
		error_message   TEXT
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating import_logs table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetProgram loads a program document by id.
func (s *SQLite) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT document FROM programs WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying program %s: %w", id, err)
	}
	return decodeProgram(doc)
}

// PutProgram inserts or replaces a program document.
func (s *SQLite) PutProgram(ctx context.Context, p *models.Program) error {
	row, err := programRow(p)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(row.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO programs (id, title, tags, status, variants, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
			SET title = excluded.title, tags = excluded.tags, status = excluded.status,
				variants = excluded.variants, document = excluded.document, updated_at = excluded.updated_at
	`, row.ID, row.Title, string(tags), string(row.Status), len(p.Variants), row.Document,
		formatTime(row.CreatedAt), formatTime(row.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting program %s: %w", p.ID, err)
	}
	return nil
}

// ListPrograms returns a summary of every program, most recently updated first.
func (s *SQLite) ListPrograms(ctx context.Context) ([]models.ProgramSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, tags, status, variants, created_at, updated_at
		FROM programs
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	var result []models.ProgramSummary
	for rows.Next() {
		var sum models.ProgramSummary
		var tags, status, created, updated string
		if err := rows.Scan(&sum.ID, &sum.Title, &tags, &status, &sum.Variants, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		sum.Status = models.Status(status)
		if err := json.Unmarshal([]byte(tags), &sum.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags of %s: %w", sum.ID, err)
		}
		if sum.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if sum.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		result = append(result, sum)
	}
	return result, rows.Err()
}

// DeleteProgram removes a program. Deleting a missing program returns ErrNotFound.
func (s *SQLite) DeleteProgram(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM programs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting program %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	return nil
}

// InsertImportLog creates a new import log entry and returns its ID.
func (s *SQLite) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO import_logs (created_at, source, status, files_read, programs_stored, duration_ms, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		formatTime(time.Now()), log.Source, log.Status, log.FilesRead, log.ProgramsStored, log.DurationMs, log.ErrorMessage)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return res.LastInsertId()
}

// UpdateImportLog updates an existing import log entry.
func (s *SQLite) UpdateImportLog(ctx context.Context, id int64, log ImportLog) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE import_logs SET status = ?, files_read = ?, programs_stored = ?, duration_ms = ?, error_message = ?
		 WHERE id = ?`,
		log.Status, log.FilesRead, log.ProgramsStored, log.DurationMs, log.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	return nil
}

// QueryImportLogs returns the most recent import logs.
func (s *SQLite) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, status, files_read, programs_stored, duration_ms, error_message
		 FROM import_logs
		 ORDER BY id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var l ImportLog
		var created string
		if err := rows.Scan(&l.ID, &created, &l.Source, &l.Status,
			&l.FilesRead, &l.ProgramsStored, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		if l.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
