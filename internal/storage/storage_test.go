package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/freeplan/internal/models"
	"github.com/google/go-cmp/cmp"
)

func sampleProgram(id string, updated time.Time) *models.Program {
	return &models.Program{
		ID:    id,
		Title: "Strength " + id,
		Tags:  []string{"strength", "novice"},
		Original: models.Branch{
			ID:   models.OriginalBranchID,
			Name: "Original",
			Weeks: map[string]models.DayMap{"W1": {"G1": {
				{ID: "sq", Name: "Squat", Sets: "5", Reps: "5", Superset: models.Leader("sq")},
				{ID: "bp", Name: "Bench Press", Cues: []string{"arch"}, Superset: models.Follower("sq")},
			}}},
			DayNames: map[string]string{"G1": "Heavy"},
		},
		Variants: []models.Branch{{
			ID: "v1", Name: "Variant 1", Number: 1,
			Weeks: map[string]models.DayMap{"W1": {"G1": {}}},
		}},
		ActiveBranchID: "v1",
		ActiveWeekKey:  "W1",
		ActiveDayKey:   "G1",
		CreatedAt:      updated.Add(-time.Hour),
		UpdatedAt:      updated,
	}
}

// store is the common surface of the program stores under test.
type store interface {
	GetProgram(ctx context.Context, id string) (*models.Program, error)
	PutProgram(ctx context.Context, p *models.Program) error
	ListPrograms(ctx context.Context) ([]models.ProgramSummary, error)
	DeleteProgram(ctx context.Context, id string) error
}

func testStore(t *testing.T, s store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if _, err := s.GetProgram(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProgram(missing) error = %v, want ErrNotFound", err)
	}

	a := sampleProgram("a", base)
	if err := s.PutProgram(ctx, a); err != nil {
		t.Fatalf("PutProgram: %v", err)
	}
	got, err := s.GetProgram(ctx, "a")
	if err != nil {
		t.Fatalf("GetProgram: %v", err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	// Upsert replaces the document.
	a.Title = "Renamed"
	a.Status = models.StatusPublished
	a.UpdatedAt = base.Add(2 * time.Hour)
	if err := s.PutProgram(ctx, a); err != nil {
		t.Fatalf("PutProgram again: %v", err)
	}
	if err := s.PutProgram(ctx, sampleProgram("b", base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListPrograms(ctx)
	if err != nil {
		t.Fatalf("ListPrograms: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListPrograms len = %d, want 2", len(list))
	}
	if list[0].ID != "a" || list[0].Title != "Renamed" || list[0].Variants != 1 {
		t.Errorf("first summary = %+v, want a/Renamed/1 variant", list[0])
	}
	if !list[0].UpdatedAt.Equal(a.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", list[0].UpdatedAt, a.UpdatedAt)
	}
	if diff := cmp.Diff([]string{"strength", "novice"}, list[1].Tags); diff != "" {
		t.Errorf("tags mismatch:\n%s", diff)
	}
	if list[0].Status != models.StatusPublished || list[1].Status != models.StatusDraft {
		t.Errorf("statuses = %q, %q; want published, draft", list[0].Status, list[1].Status)
	}

	if err := s.DeleteProgram(ctx, "b"); err != nil {
		t.Fatalf("DeleteProgram: %v", err)
	}
	if _, err := s.GetProgram(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProgram after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteProgram(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteProgram error = %v, want ErrNotFound", err)
	}
}

// TestMemoryStore runs the store contract against Memory.
func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemory())
}

// TestMemoryStoreCopies verifies that the memory store shares no state with callers.
func TestMemoryStoreCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	p := sampleProgram("a", time.Now())
	m.PutProgram(ctx, p)
	p.Original.Weeks["W1"]["G1"][0].Name = "changed"

	got, _ := m.GetProgram(ctx, "a")
	if got.Original.Weeks["W1"]["G1"][0].Name != "Squat" {
		t.Error("store kept a reference to the caller's program")
	}
	if m.Puts() != 1 {
		t.Errorf("Puts = %d, want 1", m.Puts())
	}
}

// TestSQLiteStore runs the store contract against a SQLite file.
func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "programs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}

// TestSQLiteReopen verifies that programs survive closing the database.
func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "programs.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PutProgram(context.Background(), sampleProgram("a", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.GetProgram(context.Background(), "a")
	if err != nil {
		t.Fatalf("GetProgram after reopen: %v", err)
	}
	if got.Original.Weeks["W1"]["G1"][1].Superset.GroupID() != "sq" {
		t.Errorf("superset link lost: %+v", got.Original.Weeks["W1"]["G1"])
	}
}

// TestSQLiteImportLogs verifies inserting and updating an import log entry.
func TestSQLiteImportLogs(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "programs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	id, err := s.InsertImportLog(ctx, ImportLog{Source: "programs/", Status: "running"})
	if err != nil {
		t.Fatalf("InsertImportLog: %v", err)
	}
	ms := 12
	if err := s.UpdateImportLog(ctx, id, ImportLog{Status: "success", FilesRead: 3, ProgramsStored: 2, DurationMs: &ms}); err != nil {
		t.Fatalf("UpdateImportLog: %v", err)
	}
	logs, err := s.QueryImportLogs(ctx, 10)
	if err != nil {
		t.Fatalf("QueryImportLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
	l := logs[0]
	if l.ID != id || l.Status != "success" || l.ProgramsStored != 2 || l.DurationMs == nil || *l.DurationMs != 12 {
		t.Errorf("log = %+v", l)
	}
	if l.ErrorMessage != nil {
		t.Errorf("error message = %q, want nil", *l.ErrorMessage)
	}
}
