package workout

import (
	"fmt"

	"github.com/claude/freeplan/internal/clone"
	"github.com/claude/freeplan/internal/models"
)

// VariantName is the display name given to a new variant.
func VariantName(n int) string {
	return fmt.Sprintf("Variant %d", n)
}

// nextVariantNumber returns one more than the highest variant number in use.
func nextVariantNumber(p *models.Program) int {
	n := 0
	for _, v := range p.Variants {
		if v.Number > n {
			n = v.Number
		}
	}
	return n + 1
}

// AddBranch clones the branch sourceID (the original or any variant) into a
// new variant appended to the program, and returns the new variant's id.
func AddBranch(p *models.Program, eng *clone.Engine, sourceID string) (string, error) {
	src := p.Branch(sourceID)
	if src == nil {
		return "", fmt.Errorf("cloning branch %s: %w", sourceID, ErrNotFound)
	}
	b := eng.Branch(*src)
	b.Number = nextVariantNumber(p)
	b.Name = VariantName(b.Number)
	b.Description = ""
	EnsureShape(&b)
	p.Variants = append(p.Variants, b)
	return b.ID, nil
}

// RemoveBranch deletes a variant. It returns the branch that should become
// active if the removed one was: the previous variant, else the next one,
// else the original.
func RemoveBranch(p *models.Program, id string) (fallback string, err error) {
	if id == models.OriginalBranchID {
		return "", fmt.Errorf("removing branch %s: %w", id, ErrProtectedKey)
	}
	idx := -1
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("removing branch %s: %w", id, ErrNotFound)
	}
	switch {
	case idx > 0:
		fallback = p.Variants[idx-1].ID
	case idx+1 < len(p.Variants):
		fallback = p.Variants[idx+1].ID
	default:
		fallback = models.OriginalBranchID
	}
	p.Variants = append(p.Variants[:idx], p.Variants[idx+1:]...)
	return fallback, nil
}

// RenameBranch updates a branch's display name and description. An empty
// name keeps the current one.
func RenameBranch(p *models.Program, id, name, description string) error {
	b := p.Branch(id)
	if b == nil {
		return fmt.Errorf("renaming branch %s: %w", id, ErrNotFound)
	}
	if name != "" {
		b.Name = name
	}
	b.Description = description
	return nil
}
