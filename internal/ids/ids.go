// Package ids mints the identifiers used for branches and exercises.
package ids

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator supplies identifiers that are unique for the life of the process.
type Generator interface {
	NextID() string
}

// UUID generates random version 4 UUIDs.
type UUID struct{}

// NextID implements Generator.
func (UUID) NextID() string {
	return uuid.NewString()
}

// Sequence generates prefix-1, prefix-2, ... Safe for concurrent use.
// Tests use it to get predictable ids.
type Sequence struct {
	Prefix string
	n      atomic.Uint64
}

// NewSequence returns a Sequence with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{Prefix: prefix}
}

// NextID implements Generator.
func (s *Sequence) NextID() string {
	return s.Prefix + "-" + strconv.FormatUint(s.n.Add(1), 10)
}
