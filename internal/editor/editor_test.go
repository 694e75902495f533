package editor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/claude/freeplan/internal/clipboard"
	"github.com/claude/freeplan/internal/ids"
	"github.com/claude/freeplan/internal/models"
	"github.com/claude/freeplan/internal/storage"
	"github.com/claude/freeplan/internal/workout"
	"github.com/google/go-cmp/cmp"
)

var (
	coach  = WithAccess(context.Background(), Access{CanEditProgram: true})
	viewer = WithAccess(context.Background(), Access{})
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) (*Manager, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	m := NewManager(store, ids.NewSequence("id"), discardLogger())
	t.Cleanup(m.Close)
	return m, store
}

// seed stores empty programs with the given ids.
func seed(t *testing.T, store Store, programIDs ...string) {
	t.Helper()
	for _, id := range programIDs {
		if err := store.PutProgram(context.Background(), workout.NewProgram(id, "Untitled program", time.Now())); err != nil {
			t.Fatal(err)
		}
	}
}

func openSession(t *testing.T) (*Session, *Manager, *storage.Memory) {
	t.Helper()
	m, store := newTestManager(t)
	seed(t, store, "p1")
	s, err := m.Open(coach, "p1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, m, store
}

func names(list []models.Exercise) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Name
	}
	return out
}

func mustView(t *testing.T, s *Session, ctx context.Context) View {
	t.Helper()
	v, err := s.View(ctx)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	return v
}

// TestRemoveActiveDayFallsBack covers removing the active day: the lowest
// remaining day becomes active and its list is loaded.
func TestRemoveActiveDayFallsBack(t *testing.T) {
	s, _, _ := openSession(t)
	s.AddExercise(coach, models.Exercise{Name: "Squat"})
	for i := 0; i < 3; i++ {
		if _, err := s.AddDay(coach); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SwitchDay(coach, "G3"); err != nil {
		t.Fatal(err)
	}
	s.AddExercise(coach, models.Exercise{Name: "Row"})

	if err := s.RemoveDay(coach, "G3"); err != nil {
		t.Fatalf("RemoveDay: %v", err)
	}
	v := mustView(t, s, coach)
	if v.Position.DayKey != "G1" {
		t.Errorf("active day = %s, want G1", v.Position.DayKey)
	}
	if got := names(v.Exercises); !slices.Equal(got, []string{"Squat"}) {
		t.Errorf("loaded exercises = %v, want [Squat]", got)
	}
	for _, d := range v.Days {
		if d.Key == "G3" {
			t.Error("G3 still listed")
		}
	}
}

// TestSwitchCommitsWorkingCopy verifies that edits made at one position are
// committed before another position is loaded.
func TestSwitchCommitsWorkingCopy(t *testing.T) {
	s, _, _ := openSession(t)
	s.AddExercise(coach, models.Exercise{Name: "Squat"})
	if _, err := s.AddWeek(coach); err != nil {
		t.Fatal(err)
	}
	v := mustView(t, s, coach)
	if v.Position.WeekKey != "W2" || len(v.Exercises) != 0 {
		t.Fatalf("after AddWeek: position %v, exercises %v", v.Position, v.Exercises)
	}
	s.AddExercise(coach, models.Exercise{Name: "Deadlift"})

	if err := s.SwitchWeek(coach, "W1"); err != nil {
		t.Fatal(err)
	}
	if got := names(mustView(t, s, coach).Exercises); !slices.Equal(got, []string{"Squat"}) {
		t.Errorf("W1 = %v, want [Squat]", got)
	}
	w2, err := s.ReadDay(coach, models.Position{BranchID: models.OriginalBranchID, WeekKey: "W2", DayKey: "G1"})
	if err != nil {
		t.Fatal(err)
	}
	if got := names(w2); !slices.Equal(got, []string{"Deadlift"}) {
		t.Errorf("W2 = %v, want [Deadlift]", got)
	}
	if err := s.SwitchWeek(coach, "W7"); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("SwitchWeek(W7) = %v, want ErrNotFound", err)
	}
}

// TestUnauthorizedIsNoop verifies that a read-only caller cannot change anything.
func TestUnauthorizedIsNoop(t *testing.T) {
	s, _, _ := openSession(t)
	s.AddExercise(coach, models.Exercise{Name: "Squat"})
	before := s.Program(coach)

	calls := map[string]error{}
	_, calls["AddWeek"] = s.AddWeek(viewer)
	_, calls["AddDay"] = s.AddDay(viewer)
	_, calls["AddExercise"] = s.AddExercise(viewer, models.Exercise{Name: "Row"})
	_, calls["CloneBranch"] = s.CloneBranch(viewer, models.OriginalBranchID)
	calls["SwitchDay"] = s.SwitchDay(viewer, "G1")
	calls["UpdateDetails"] = s.UpdateDetails(viewer, Details{Title: "x"})
	calls["Copy"] = s.Copy(viewer, clipboard.ScopeDay)
	calls["Paste"] = s.Paste(viewer)
	calls["ClearDay"] = s.ClearDay(context.Background(), "W1", "G1")
	for name, err := range calls {
		if !errors.Is(err, ErrNotAuthorized) {
			t.Errorf("%s error = %v, want ErrNotAuthorized", name, err)
		}
	}
	if diff := cmp.Diff(before, s.Program(coach)); diff != "" {
		t.Errorf("program changed (-before +after):\n%s", diff)
	}
}

// TestLimitIsNotice verifies that limit and protected-key rejections are
// notices and leave the program unchanged.
func TestLimitIsNotice(t *testing.T) {
	s, _, _ := openSession(t)
	for i := 0; i < 11; i++ {
		if _, err := s.AddWeek(coach); err != nil {
			t.Fatal(err)
		}
	}
	before := s.Program(coach)
	_, err := s.AddWeek(coach)
	if !errors.Is(err, workout.ErrLimitExceeded) || !IsNotice(err) {
		t.Errorf("12th AddWeek = %v, want limit notice", err)
	}
	if err := s.RemoveWeek(coach, "W1"); !IsNotice(err) {
		t.Errorf("RemoveWeek(W1) = %v, want notice", err)
	}
	if err := s.RemoveDay(coach, "G1"); !IsNotice(err) {
		t.Errorf("RemoveDay(G1) = %v, want notice", err)
	}
	if err := s.Paste(coach); !errors.Is(err, clipboard.ErrEmptyClipboard) {
		t.Errorf("Paste with empty clipboard = %v, want ErrEmptyClipboard", err)
	}
	if diff := cmp.Diff(before, s.Program(coach)); diff != "" {
		t.Errorf("program changed (-before +after):\n%s", diff)
	}
	if IsNotice(ErrNotAuthorized) {
		t.Error("ErrNotAuthorized reported as a notice")
	}
}

// TestCloneBranchIndependence verifies that editing a cloned branch never
// changes its source.
func TestCloneBranchIndependence(t *testing.T) {
	s, _, _ := openSession(t)
	leader, _ := s.AddExercise(coach, models.Exercise{Name: "Squat"})
	follower, _ := s.AddExercise(coach, models.Exercise{Name: "Bench Press"})
	if err := s.LinkSuperset(coach, leader, follower); err != nil {
		t.Fatal(err)
	}
	original := s.Program(coach).Original.Copy()

	id, err := s.CloneBranch(coach, models.OriginalBranchID)
	if err != nil {
		t.Fatal(err)
	}
	v := mustView(t, s, coach)
	if v.Position.BranchID != id {
		t.Fatalf("active branch = %s, want %s", v.Position.BranchID, id)
	}
	if v.Branches[1].Name != "Variant 1" {
		t.Errorf("variant name = %q", v.Branches[1].Name)
	}
	cloned := v.Exercises
	if cloned[0].ID == leader || cloned[1].Superset.GroupID() != cloned[0].ID {
		t.Errorf("cloned day not re-identified: %+v", cloned)
	}

	cloned[0].Name = "Front Squat"
	if err := s.UpdateExercise(coach, cloned[0]); err != nil {
		t.Fatal(err)
	}
	s.RemoveExercise(coach, cloned[1].ID)
	s.AddDay(coach)

	if diff := cmp.Diff(original, s.Program(coach).Original); diff != "" {
		t.Errorf("original branch changed (-before +after):\n%s", diff)
	}
}

// TestSupersetEditing covers linking, moving a block, duplicating and unlinking.
func TestSupersetEditing(t *testing.T) {
	s, _, _ := openSession(t)
	a, _ := s.AddExercise(coach, models.Exercise{Name: "A"})
	b, _ := s.AddExercise(coach, models.Exercise{Name: "B"})
	c, _ := s.AddExercise(coach, models.Exercise{Name: "C"})

	// Linking C to A reflows C right after A.
	if err := s.LinkSuperset(coach, a, c); err != nil {
		t.Fatal(err)
	}
	if got := names(mustView(t, s, coach).Exercises); !slices.Equal(got, []string{"A", "C", "B"}) {
		t.Errorf("after link = %v, want [A C B]", got)
	}

	// Moving the leader moves its whole block.
	if err := s.MoveExercise(coach, a, 99); err != nil {
		t.Fatal(err)
	}
	if got := names(mustView(t, s, coach).Exercises); !slices.Equal(got, []string{"B", "A", "C"}) {
		t.Errorf("after move = %v, want [B A C]", got)
	}

	dup, err := s.DuplicateExercise(coach, a)
	if err != nil {
		t.Fatal(err)
	}
	list := mustView(t, s, coach).Exercises
	if got := names(list); !slices.Equal(got, []string{"B", "A", "C", "A", "C"}) {
		t.Errorf("after duplicate = %v", got)
	}
	if list[3].ID != dup || !list[4].Superset.IsFollower() || list[4].Superset.GroupID() != dup {
		t.Errorf("duplicated block not linked to its own leader: %+v", list[3:])
	}

	if err := s.LinkSuperset(coach, b, b); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("self link = %v, want ErrInvalidLink", err)
	}
	if err := s.LinkSuperset(coach, c, b); !errors.Is(err, ErrInvalidLink) {
		t.Errorf("link under a follower = %v, want ErrInvalidLink", err)
	}

	if err := s.UnlinkSuperset(coach, a); err != nil {
		t.Fatal(err)
	}
	for _, e := range mustView(t, s, coach).Exercises[:3] {
		if !e.Superset.IsZero() {
			t.Errorf("%s role = %v after unlinking its leader", e.Name, e.Superset)
		}
	}
}

// TestCopyPasteDay covers copying a day, the blocked self-paste and a paste
// into another day.
func TestCopyPasteDay(t *testing.T) {
	s, _, _ := openSession(t)
	s.AddExercise(coach, models.Exercise{Name: "Squat"})
	if err := s.Copy(coach, clipboard.ScopeDay); err != nil {
		t.Fatal(err)
	}
	before := s.Program(coach)

	err := s.Paste(coach)
	if !errors.Is(err, clipboard.ErrSelfPaste) || !IsNotice(err) {
		t.Errorf("self paste = %v, want ErrSelfPaste notice", err)
	}
	if diff := cmp.Diff(before, s.Program(coach)); diff != "" {
		t.Errorf("self paste changed the program:\n%s", diff)
	}

	s.AddDay(coach)
	if err := s.Paste(coach); err != nil {
		t.Fatalf("Paste: %v", err)
	}
	v := mustView(t, s, coach)
	if v.Position.DayKey != "G2" || len(v.Exercises) != 1 || v.Exercises[0].Name != "Squat" {
		t.Errorf("G2 after paste = %v", v.Exercises)
	}
	g1, _ := s.ReadDay(coach, models.Position{BranchID: models.OriginalBranchID, WeekKey: "W1", DayKey: "G1"})
	if v.Exercises[0].ID == g1[0].ID {
		t.Error("pasted exercise shares its id with the source")
	}
	if scope, from, ok := s.Clipboard(); !ok || scope != clipboard.ScopeDay || from.DayKey != "G1" {
		t.Errorf("Clipboard() = %v %v %v", scope, from, ok)
	}
}

// TestRemoveActiveBranch verifies that removing the active variant selects
// the previous one and that the original cannot be removed.
func TestRemoveActiveBranch(t *testing.T) {
	s, _, _ := openSession(t)
	v1, _ := s.CloneBranch(coach, models.OriginalBranchID)
	v2, _ := s.CloneBranch(coach, v1)

	if err := s.RemoveBranch(coach, v2); err != nil {
		t.Fatal(err)
	}
	if got := mustView(t, s, coach).Position.BranchID; got != v1 {
		t.Errorf("active branch = %s, want %s", got, v1)
	}
	if err := s.RemoveBranch(coach, models.OriginalBranchID); !errors.Is(err, workout.ErrProtectedKey) {
		t.Errorf("RemoveBranch(original) = %v, want ErrProtectedKey", err)
	}
	if err := s.RenameBranch(coach, v1, "Deload", "light week"); err != nil {
		t.Fatal(err)
	}
	if b := s.Program(coach).Branch(v1); b.Name != "Deload" {
		t.Errorf("name = %q, want Deload", b.Name)
	}
}

// TestViewerScope verifies that a viewer only sees the branches it was given.
func TestViewerScope(t *testing.T) {
	s, _, _ := openSession(t)
	v1, _ := s.CloneBranch(coach, models.OriginalBranchID)
	s.AddExercise(coach, models.Exercise{Name: "Lunge"})
	s.CloneBranch(coach, models.OriginalBranchID)
	s.SwitchBranch(coach, models.OriginalBranchID)

	scoped := WithAccess(context.Background(), Access{AllowedBranches: []string{v1}})
	branches := s.VisibleBranches(scoped)
	if len(branches) != 1 || branches[0].ID != v1 {
		t.Fatalf("visible = %+v, want only %s", branches, v1)
	}
	v := mustView(t, s, scoped)
	if v.Position.BranchID != v1 || v.CanEdit {
		t.Errorf("view position %v, can edit %v", v.Position, v.CanEdit)
	}
	if got := names(v.Exercises); !slices.Equal(got, []string{"Lunge"}) {
		t.Errorf("viewer exercises = %v, want [Lunge]", got)
	}
	if _, err := s.ReadDay(scoped, models.Position{BranchID: models.OriginalBranchID, WeekKey: "W1", DayKey: "G1"}); !errors.Is(err, ErrBranchHidden) {
		t.Errorf("ReadDay(original) = %v, want ErrBranchHidden", err)
	}
	p := s.Program(scoped)
	if len(p.Variants) != 1 || p.Variants[0].ID != v1 {
		t.Errorf("scoped program variants = %d", len(p.Variants))
	}
	if got := p.Active(); got.BranchID != v1 || got.WeekKey != "W1" || got.DayKey != "G1" {
		t.Errorf("scoped program position = %+v, want %s/W1/G1", got, v1)
	}
	if len(s.Program(coach).Variants) != 2 {
		t.Error("scoping altered the program")
	}
	if got := s.Program(coach).ActiveBranchID; got != models.OriginalBranchID {
		t.Errorf("coach position = %s, want original", got)
	}
}

// TestPersistence verifies that every change reaches the store once the
// manager is closed, and that a reopened program keeps its position.
func TestPersistence(t *testing.T) {
	store := storage.NewMemory()
	m := NewManager(store, ids.NewSequence("id"), discardLogger())
	s, err := m.Put(coach, "p1", Details{Title: "Block A", Tags: []string{"strength"}})
	if err != nil {
		t.Fatal(err)
	}
	s.AddDay(coach)
	s.AddExercise(coach, models.Exercise{Name: "Press", Cues: []string{"squeeze glutes"}})
	m.Close()

	saved, err := store.GetProgram(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if saved.Title != "Block A" || saved.ActiveDayKey != "G2" {
		t.Errorf("saved = %q at %s", saved.Title, saved.ActiveDayKey)
	}
	if list := saved.Original.Weeks["W1"]["G2"]; len(list) != 1 || list[0].Cues[0] != "squeeze glutes" {
		t.Errorf("saved G2 = %+v", list)
	}

	m2 := NewManager(store, ids.NewSequence("id2"), discardLogger())
	defer m2.Close()
	s2, err := m2.Open(viewer, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got := names(mustView(t, s2, viewer).Exercises); !slices.Equal(got, []string{"Press"}) {
		t.Errorf("reopened view = %v", got)
	}
	if _, err := m2.Open(viewer, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("viewer Open(missing) = %v, want ErrNotFound", err)
	}
}

// failingStore fails every write.
type failingStore struct {
	*storage.Memory
	mu    sync.Mutex
	fails int
}

func (f *failingStore) PutProgram(ctx context.Context, p *models.Program) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails++
	return errors.New("disk full")
}

// TestSaveFailureKeepsState verifies that a failed save is logged and the
// in-memory program stays authoritative.
func TestSaveFailureKeepsState(t *testing.T) {
	store := &failingStore{Memory: storage.NewMemory()}
	seed(t, store.Memory, "p1")
	m := NewManager(store, ids.NewSequence("id"), discardLogger())
	s, err := m.Open(coach, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddExercise(coach, models.Exercise{Name: "Squat"}); err != nil {
		t.Fatalf("AddExercise returned the save error: %v", err)
	}
	m.Close()

	if got := names(mustView(t, s, coach).Exercises); !slices.Equal(got, []string{"Squat"}) {
		t.Errorf("in-memory state = %v", got)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.fails == 0 {
		t.Error("no save was attempted")
	}
}

// slowStore blocks writes until released and records what it wrote.
type slowStore struct {
	*storage.Memory
	release chan struct{}
	mu      sync.Mutex
	titles  []string
}

func (s *slowStore) PutProgram(ctx context.Context, p *models.Program) error {
	<-s.release
	s.mu.Lock()
	s.titles = append(s.titles, p.Title)
	s.mu.Unlock()
	return s.Memory.PutProgram(ctx, p)
}

// TestSaverLastWriteWins verifies that snapshots queued behind an in-flight
// save collapse into the latest one.
func TestSaverLastWriteWins(t *testing.T) {
	store := &slowStore{Memory: storage.NewMemory(), release: make(chan struct{})}
	sv := newSaver(store, discardLogger())

	sv.Save(&models.Program{ID: "p", Title: "first"})
	time.Sleep(20 * time.Millisecond)
	for _, title := range []string{"second", "third", "fourth"} {
		sv.Save(&models.Program{ID: "p", Title: title})
	}
	close(store.release)
	sv.Close()

	got, _ := store.GetProgram(context.Background(), "p")
	if got.Title != "fourth" {
		t.Errorf("stored title = %q, want fourth", got.Title)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.titles) > 2 {
		t.Errorf("writes = %v, want at most [first fourth]", store.titles)
	}
}

// TestManagerCreate verifies creating a program with a generated id.
func TestManagerCreate(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.Create(coach, Details{Title: "Hypertrophy"})
	if err != nil {
		t.Fatal(err)
	}
	if s.ID() != "id-1" {
		t.Errorf("ID = %q, want id-1", s.ID())
	}
	again, _ := m.Open(coach, s.ID())
	if again != s {
		t.Error("Open returned a second session for the same program")
	}
	if _, err := m.Create(viewer, Details{}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("viewer Create = %v, want ErrNotAuthorized", err)
	}
}

// TestManagerProgramScope verifies that program restrictions apply to Open and List.
func TestManagerProgramScope(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, "p1", "p2")
	m := NewManager(store, ids.NewSequence("id"), discardLogger())
	defer m.Close()
	scoped := WithAccess(context.Background(), Access{AllowedPrograms: []string{"p2"}})
	if _, err := m.Open(scoped, "p1"); !errors.Is(err, ErrProgramHidden) {
		t.Errorf("Open(p1) = %v, want ErrProgramHidden", err)
	}
	list, err := m.List(scoped, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "p2" {
		t.Errorf("List = %+v, want only p2", list)
	}
}

// TestManagerOpenMissing verifies that opening an unknown program creates
// nothing, even for a coach.
func TestManagerOpenMissing(t *testing.T) {
	m, store := newTestManager(t)
	if _, err := m.Open(coach, "typo"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Open(typo) = %v, want ErrNotFound", err)
	}
	m.Close()
	if store.Puts() != 0 {
		t.Errorf("Puts = %d, want 0", store.Puts())
	}
	if list, _ := store.ListPrograms(context.Background()); len(list) != 0 {
		t.Errorf("programs = %+v, want none", list)
	}
}

// TestManagerPut verifies that Put creates a missing program and updates an
// existing one in place.
func TestManagerPut(t *testing.T) {
	m, _ := newTestManager(t)
	s, err := m.Put(coach, "p1", Details{Title: "Block A"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	again, err := m.Put(coach, "p1", Details{Title: "Block B", Status: "published"})
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if again != s {
		t.Error("Put returned a second session for the same program")
	}
	v := mustView(t, s, coach)
	if v.Title != "Block B" || v.Status != models.StatusPublished {
		t.Errorf("view = %q/%q, want Block B/published", v.Title, v.Status)
	}
	if _, err := m.Put(viewer, "p2", Details{Title: "x"}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("viewer Put = %v, want ErrNotAuthorized", err)
	}
}

// TestUpdateDetailsStatus verifies status changes and that an unknown
// status leaves the program untouched.
func TestUpdateDetailsStatus(t *testing.T) {
	s, _, _ := openSession(t)
	if got := mustView(t, s, coach).Status; got != models.StatusDraft {
		t.Errorf("initial status = %q, want draft", got)
	}
	if err := s.UpdateDetails(coach, Details{Title: "A", Status: "archived"}); err != nil {
		t.Fatal(err)
	}
	err := s.UpdateDetails(coach, Details{Title: "B", Status: "retired"})
	if !errors.Is(err, models.ErrInvalidStatus) {
		t.Errorf("UpdateDetails(retired) = %v, want ErrInvalidStatus", err)
	}
	v := mustView(t, s, coach)
	if v.Title != "A" || v.Status != models.StatusArchived {
		t.Errorf("view = %q/%q, want A/archived", v.Title, v.Status)
	}
	if err := s.UpdateDetails(coach, Details{Title: "C"}); err != nil {
		t.Fatal(err)
	}
	if got := mustView(t, s, coach).Status; got != models.StatusArchived {
		t.Errorf("status after update without status = %q, want archived", got)
	}
	if err := s.UpdateDetails(viewer, Details{Title: "D", Status: "retired"}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("viewer UpdateDetails = %v, want ErrNotAuthorized", err)
	}
}

// TestManagerListStatus verifies filtering the listing by status.
func TestManagerListStatus(t *testing.T) {
	m, _ := newTestManager(t)
	for id, status := range map[string]string{"p1": "draft", "p2": "published", "p3": "published"} {
		if _, err := m.Put(coach, id, Details{Title: id, Status: status}); err != nil {
			t.Fatal(err)
		}
	}
	m.Close()

	m2 := NewManager(m.store, ids.NewSequence("id"), discardLogger())
	defer m2.Close()
	list, err := m2.List(coach, models.StatusPublished)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, p := range list {
		got = append(got, p.ID)
	}
	slices.Sort(got)
	if diff := cmp.Diff([]string{"p2", "p3"}, got); diff != "" {
		t.Errorf("published mismatch (-want +got):\n%s", diff)
	}
	if all, _ := m2.List(coach, ""); len(all) != 3 {
		t.Errorf("unfiltered = %d programs, want 3", len(all))
	}
}

// TestManagerDelete verifies that deleting drops the session and the stored
// program, and that viewers cannot delete.
func TestManagerDelete(t *testing.T) {
	m, store := newTestManager(t)
	s, err := m.Put(coach, "p1", Details{Title: "Block A"})
	if err != nil {
		t.Fatal(err)
	}
	s.AddExercise(coach, models.Exercise{Name: "Squat"})

	if err := m.Delete(viewer, "p1"); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("viewer Delete = %v, want ErrNotAuthorized", err)
	}
	if err := m.Delete(coach, "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetProgram(context.Background(), "p1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("stored program after delete = %v, want ErrNotFound", err)
	}
	if _, err := m.Open(coach, "p1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Open after delete = %v, want ErrNotFound", err)
	}
	if err := m.Delete(coach, "p1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}

	// Commands on a session held across the delete do not resurrect it.
	s.AddExercise(coach, models.Exercise{Name: "Bench"})
	m.Close()
	if _, err := store.GetProgram(context.Background(), "p1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("program came back after delete: %v", err)
	}
}
