package models

import "time"

// ProgramRow is a row of the programs table. The program itself is stored
// as a JSON document in Document; the other columns are copies kept for
// listing without decoding it.
type ProgramRow struct {
	ID        string
	Title     string
	Tags      []string
	Status    Status
	Document  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProgramSummary is the listing view of a stored program.
type ProgramSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags,omitempty"`
	Status    Status    `json:"status"`
	Variants  int       `json:"variants"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the listing view of p.
func (p *Program) Summary() ProgramSummary {
	return ProgramSummary{
		ID:        p.ID,
		Title:     p.Title,
		Tags:      p.Tags,
		Status:    p.Status.OrDraft(),
		Variants:  len(p.Variants),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
