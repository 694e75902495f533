package storage

import (
	"context"
	"fmt"
	"time"
)

// ImportLog represents a single import run's outcome.
type ImportLog struct {
	ID             int64     `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Source         string    `json:"source"`
	Status         string    `json:"status"`
	FilesRead      int       `json:"files_read"`
	ProgramsStored int       `json:"programs_stored"`
	DurationMs     *int      `json:"duration_ms"`
	ErrorMessage   *string   `json:"error_message"`
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (source, status, files_read, programs_stored, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id`,
		log.Source, log.Status, log.FilesRead, log.ProgramsStored, log.DurationMs, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (db *DB) UpdateImportLog(ctx context.Context, id int64, log ImportLog) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE import_logs SET
		 status = $2, files_read = $3, programs_stored = $4, duration_ms = $5, error_message = $6
		 WHERE id = $1`,
		id, log.Status, log.FilesRead, log.ProgramsStored, log.DurationMs, log.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	return nil
}

// QueryImportLogs returns the most recent import logs.
func (db *DB) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, created_at, source, status, files_read, programs_stored, duration_ms, error_message
		 FROM import_logs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	var result []ImportLog
	for rows.Next() {
		var l ImportLog
		if err := rows.Scan(&l.ID, &l.CreatedAt, &l.Source, &l.Status,
			&l.FilesRead, &l.ProgramsStored, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
