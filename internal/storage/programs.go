package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/freeplan/internal/models"
	"github.com/jackc/pgx/v5"
)

// GetProgram loads a program document by id.
func (db *DB) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	var doc []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT document FROM programs WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying program %s: %w", id, err)
	}
	return decodeProgram(doc)
}

// PutProgram inserts or replaces a program document.
func (db *DB) PutProgram(ctx context.Context, p *models.Program) error {
	row, err := programRow(p)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO programs (id, title, tags, status, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title, tags = EXCLUDED.tags, status = EXCLUDED.status,
				document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`, row.ID, row.Title, row.Tags, string(row.Status), row.Document, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting program %s: %w", p.ID, err)
	}
	return nil
}

// ListPrograms returns a summary of every program, most recently updated first.
func (db *DB) ListPrograms(ctx context.Context) ([]models.ProgramSummary, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, title, tags, status, jsonb_array_length(COALESCE(document->'variants', '[]'::jsonb)),
			created_at, updated_at
		FROM programs
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	var result []models.ProgramSummary
	for rows.Next() {
		var s models.ProgramSummary
		var status string
		if err := rows.Scan(&s.ID, &s.Title, &s.Tags, &status, &s.Variants, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		s.Status = models.Status(status)
		result = append(result, s)
	}
	return result, rows.Err()
}

// DeleteProgram removes a program. Deleting a missing program returns ErrNotFound.
func (db *DB) DeleteProgram(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting program %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("program %s: %w", id, ErrNotFound)
	}
	return nil
}

// programRow encodes p for storage.
func programRow(p *models.Program) (models.ProgramRow, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return models.ProgramRow{}, fmt.Errorf("encoding program %s: %w", p.ID, err)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.ProgramRow{
		ID:        p.ID,
		Title:     p.Title,
		Tags:      tags,
		Status:    p.Status.OrDraft(),
		Document:  doc,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func decodeProgram(doc []byte) (*models.Program, error) {
	var p models.Program
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decoding program: %w", err)
	}
	return &p, nil
}
