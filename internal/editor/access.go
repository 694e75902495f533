package editor

import (
	"context"
	"errors"
	"slices"

	"github.com/claude/freeplan/internal/clipboard"
	"github.com/claude/freeplan/internal/workout"
)

var (
	// ErrNotAuthorized reports a mutation attempted without edit access.
	ErrNotAuthorized = errors.New("not authorized to edit program")
	// ErrBranchHidden reports access to a branch outside the caller's scope.
	ErrBranchHidden = errors.New("branch not visible")
	// ErrProgramHidden reports access to a program outside the caller's scope.
	ErrProgramHidden = errors.New("program not visible")
	// ErrInvalidLink reports a superset link that cannot be formed.
	ErrInvalidLink = errors.New("invalid superset link")
)

// Access is what the caller may do with a program. It is computed by the
// transport layer and carried in the request context.
type Access struct {
	CanEditProgram bool
	// AllowedBranches restricts the visible branches. Empty means all.
	AllowedBranches []string
	// AllowedPrograms restricts the programs that can be opened. Empty means all.
	AllowedPrograms []string
}

// CanOpen reports whether programID may be opened under a.
func (a Access) CanOpen(programID string) bool {
	return len(a.AllowedPrograms) == 0 || slices.Contains(a.AllowedPrograms, programID)
}

// CanSee reports whether branchID is visible under a.
func (a Access) CanSee(branchID string) bool {
	return len(a.AllowedBranches) == 0 || slices.Contains(a.AllowedBranches, branchID)
}

type accessKey struct{}

// WithAccess returns a context carrying a.
func WithAccess(ctx context.Context, a Access) context.Context {
	return context.WithValue(ctx, accessKey{}, a)
}

// AccessFromContext returns the access stored in ctx. A context without
// access is read-only with every branch visible.
func AccessFromContext(ctx context.Context) Access {
	a, _ := ctx.Value(accessKey{}).(Access)
	return a
}

// IsNotice reports whether err is a rejected command the caller should see
// as a notice rather than a failure. The program is unchanged in that case.
func IsNotice(err error) bool {
	return errors.Is(err, workout.ErrLimitExceeded) ||
		errors.Is(err, workout.ErrProtectedKey) ||
		errors.Is(err, workout.ErrLastWeek) ||
		errors.Is(err, clipboard.ErrEmptyClipboard)
}
