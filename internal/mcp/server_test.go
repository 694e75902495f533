package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/freeplan/internal/editor"
	"github.com/claude/freeplan/internal/ids"
	"github.com/claude/freeplan/internal/models"
	"github.com/claude/freeplan/internal/storage"
	"github.com/claude/freeplan/internal/workout"
	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
)

var (
	coach  = editor.WithAccess(context.Background(), editor.Access{CanEditProgram: true})
	viewer = editor.WithAccess(context.Background(), editor.Access{})
)

type toolHandler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandlers(t *testing.T) (*handlers, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	if err := store.PutProgram(context.Background(), workout.NewProgram("p1", "Strength", time.Now())); err != nil {
		t.Fatal(err)
	}
	m := editor.NewManager(store, ids.NewSequence("id"), discardLogger())
	t.Cleanup(m.Close)
	return &handlers{ds: NewLocal(m), log: discardLogger()}, store
}

func callTool(t *testing.T, fn toolHandler, ctx context.Context, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := fn(ctx, req)
	if err != nil {
		t.Fatalf("tool returned error: %v", err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

// decodeResult fails the test on an error result and decodes the JSON payload.
func decodeResult[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	text := resultText(t, res)
	if res.IsError {
		t.Fatalf("tool failed: %s", text)
	}
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		t.Fatalf("decode error: %v (%s)", err, text)
	}
	return v
}

// TestToolsWorkflow builds a superset in a new week through the tools.
func TestToolsWorkflow(t *testing.T) {
	h, _ := newTestHandlers(t)

	res := decodeResult[Result](t, callTool(t, h.addWeek, coach, map[string]any{"program": "p1"}))
	if res.Created != "W2" || res.View.Position.WeekKey != "W2" {
		t.Fatalf("add_week = %q at %+v, want W2 active", res.Created, res.View.Position)
	}

	squat := decodeResult[Result](t, callTool(t, h.addExercise, coach, map[string]any{
		"program": "p1", "name": "Squat", "sets": "5", "reps": "5",
	})).Created
	dip := decodeResult[Result](t, callTool(t, h.addExercise, coach, map[string]any{
		"program": "p1", "name": "Dip",
	})).Created

	decodeResult[Result](t, callTool(t, h.linkSuperset, coach, map[string]any{
		"program": "p1", "leader": squat, "follower": dip,
	}))

	list := decodeResult[[]models.Exercise](t, callTool(t, h.getDay, coach, map[string]any{
		"program": "p1", "week": "W2",
	}))
	if len(list) != 2 {
		t.Fatalf("get_day = %+v, want 2 exercises", list)
	}
	if !list[0].Superset.Equal(models.Leader(squat)) || !list[1].Superset.Equal(models.Follower(squat)) {
		t.Errorf("roles = %v, %v, want leader and follower of %s", list[0].Superset, list[1].Superset, squat)
	}
	if list[0].Sets != "5" {
		t.Errorf("sets = %q, want 5", list[0].Sets)
	}

	p := decodeResult[models.Program](t, callTool(t, h.getProgram, coach, map[string]any{"program": "p1"}))
	if diff := cmp.Diff([]string{"W1", "W2"}, workout.WeekKeys(&p.Original)); diff != "" {
		t.Errorf("weeks mismatch (-want +got):\n%s", diff)
	}
}

// TestToolNotice verifies that refused commands come back as notices.
func TestToolNotice(t *testing.T) {
	h, _ := newTestHandlers(t)
	res := callTool(t, h.removeWeek, coach, map[string]any{"program": "p1", "week": "W1"})
	if !res.IsError {
		t.Fatal("remove_week W1 succeeded")
	}
	if text := resultText(t, res); !strings.HasPrefix(text, "notice:") {
		t.Errorf("text = %q, want a notice", text)
	}
}

// TestToolViewer verifies that read-only callers cannot run commands.
func TestToolViewer(t *testing.T) {
	h, _ := newTestHandlers(t)
	decodeResult[Result](t, callTool(t, h.addDay, coach, map[string]any{"program": "p1"}))

	res := callTool(t, h.addWeek, viewer, map[string]any{"program": "p1"})
	if !res.IsError || !strings.Contains(resultText(t, res), "not authorized") {
		t.Errorf("viewer add_week = %q, want not authorized", resultText(t, res))
	}

	list := decodeResult[[]models.Exercise](t, callTool(t, h.getDay, viewer, map[string]any{"program": "p1", "day": "G2"}))
	if len(list) != 0 {
		t.Errorf("get_day = %+v, want empty", list)
	}
}

// TestToolMissingArguments verifies required parameters.
func TestToolMissingArguments(t *testing.T) {
	h, _ := newTestHandlers(t)
	tests := []struct {
		name string
		fn   toolHandler
		args map[string]any
	}{
		{"get_program", h.getProgram, map[string]any{}},
		{"remove_day", h.removeDay, map[string]any{"program": "p1"}},
		{"add_exercise", h.addExercise, map[string]any{"program": "p1"}},
		{"link_superset", h.linkSuperset, map[string]any{"program": "p1", "leader": "a"}},
		{"copy", h.copyToClipboard, map[string]any{"program": "p1", "scope": "month"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := callTool(t, tt.fn, coach, tt.args); !res.IsError {
				t.Errorf("%s succeeded without required arguments", tt.name)
			}
		})
	}
}

// TestToolsCopyPaste copies a day onto a new day and checks the self-paste guard.
func TestToolsCopyPaste(t *testing.T) {
	h, _ := newTestHandlers(t)
	decodeResult[Result](t, callTool(t, h.addExercise, coach, map[string]any{"program": "p1", "name": "Row"}))
	decodeResult[Result](t, callTool(t, h.copyToClipboard, coach, map[string]any{"program": "p1", "scope": "day"}))

	if res := callTool(t, h.paste, coach, map[string]any{"program": "p1"}); !res.IsError {
		t.Error("paste onto its own source succeeded")
	}

	decodeResult[Result](t, callTool(t, h.addDay, coach, map[string]any{"program": "p1"}))
	res := decodeResult[Result](t, callTool(t, h.paste, coach, map[string]any{"program": "p1"}))
	if res.View.Position.DayKey != "G2" || len(res.View.Exercises) != 1 || res.View.Exercises[0].Name != "Row" {
		t.Errorf("after paste view = %+v", res.View)
	}

	res = decodeResult[Result](t, callTool(t, h.switchPosition, coach, map[string]any{"program": "p1", "day": "G1"}))
	if res.View.Position.DayKey != "G1" {
		t.Errorf("position = %+v, want G1", res.View.Position)
	}
}

// TestToolsBranches clones a branch and lists programs.
func TestToolsBranches(t *testing.T) {
	h, _ := newTestHandlers(t)

	res := decodeResult[Result](t, callTool(t, h.cloneBranch, coach, map[string]any{"program": "p1"}))
	if res.View.Position.BranchID != res.Created || len(res.View.Branches) != 2 {
		t.Errorf("clone_branch = %+v", res)
	}

	list := decodeResult[[]models.ProgramSummary](t, callTool(t, h.listPrograms, coach, nil))
	if len(list) != 1 || list[0].Title != "Strength" || list[0].Status != models.StatusDraft {
		t.Errorf("list_programs = %+v", list)
	}
	published := decodeResult[[]models.ProgramSummary](t, callTool(t, h.listPrograms, coach, map[string]any{"status": "published"}))
	if len(published) != 0 {
		t.Errorf("published programs = %+v, want none", published)
	}
	if res := callTool(t, h.listPrograms, coach, map[string]any{"status": "retired"}); !res.IsError {
		t.Error("list_programs accepted an unknown status")
	}
}

// TestProgramsResource verifies the programs resource.
func TestProgramsResource(t *testing.T) {
	h, _ := newTestHandlers(t)
	req := mcp.ReadResourceRequest{}
	req.Params.URI = "freeplan://programs"
	contents, err := h.programs(coach, req)
	if err != nil {
		t.Fatalf("programs: %v", err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents = %T", contents[0])
	}
	if text.URI != "freeplan://programs" || !strings.Contains(text.Text, `"title":"Strength"`) {
		t.Errorf("resource = %+v", text)
	}
}

// TestToolsRegistered verifies that New registers every tool.
func TestToolsRegistered(t *testing.T) {
	h, _ := newTestHandlers(t)
	s := New(h.ds, "test", discardLogger())

	resp := s.HandleMessage(coach, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"list_programs", "get_program", "get_day", "switch_position",
		"add_week", "remove_week", "add_day", "remove_day", "clone_branch",
		"add_exercise", "link_superset", "copy", "paste",
	} {
		if !strings.Contains(string(data), `"name":"`+name+`"`) {
			t.Errorf("tool %s not registered", name)
		}
	}
}
