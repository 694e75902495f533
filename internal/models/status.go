package models

import (
	"errors"
	"fmt"
)

// Status is the publication state of a program.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ErrInvalidStatus reports an unknown program status.
var ErrInvalidStatus = errors.New("invalid program status")

// ParseStatus validates s. The empty string is not a status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusDraft, StatusPublished, StatusArchived:
		return st, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidStatus)
}

// OrDraft returns s, or StatusDraft for documents written before programs
// carried a status.
func (s Status) OrDraft() Status {
	if s == "" {
		return StatusDraft
	}
	return s
}
