package mcp

import (
	"context"
	"errors"

	"github.com/claude/freeplan/internal/clipboard"
	"github.com/claude/freeplan/internal/editor"
	"github.com/claude/freeplan/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List the workout programs you can open, with title, tags, status and number of variants."),
	mcp.WithString("status", mcp.Description("Only list programs in this status"), mcp.Enum("draft", "published", "archived")),
)

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Retrieve a whole program: the original branch, its variants, every week and day with their exercises, and the active position."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
)

var toolGetDay = mcp.NewTool("get_day",
	mcp.WithDescription("Retrieve the ordered exercise list of one day. Superset followers come right after their leader."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
	mcp.WithString("branch", mcp.Description("Branch id. Defaults to 'original'.")),
	mcp.WithString("week", mcp.Description("Week key (W1..W12). Defaults to W1.")),
	mcp.WithString("day", mcp.Description("Day key (G1..G10). Defaults to G1.")),
)

var toolSwitchPosition = mcp.NewTool("switch_position",
	mcp.WithDescription("Move the editing position. Omitted fields keep their current value. Exercise commands apply to the day at this position."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
	mcp.WithString("branch", mcp.Description("Branch id")),
	mcp.WithString("week", mcp.Description("Week key (W1..W12)")),
	mcp.WithString("day", mcp.Description("Day key (G1..G10)")),
)

var toolAddWeek = mcp.NewTool("add_week",
	mcp.WithDescription("Add a week to the active branch, filling the lowest free key. At most 12 weeks."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
)

var toolRemoveWeek = mcp.NewTool("remove_week",
	mcp.WithDescription("Remove a week and all its days from the active branch. W1 cannot be removed."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
	mcp.WithString("week", mcp.Required(), mcp.Description("Week key (W2..W12)")),
)

var toolAddDay = mcp.NewTool("add_day",
	mcp.WithDescription("Add a day to every week of the active branch, filling the lowest free key. At most 10 days."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
)

var toolRemoveDay = mcp.NewTool("remove_day",
	mcp.WithDescription("Remove a day from every week of the active branch. G1 cannot be removed."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
	mcp.WithString("day", mcp.Required(), mcp.Description("Day key (G2..G10)")),
)

var toolCloneBranch = mcp.NewTool("clone_branch",
	mcp.WithDescription("Create a variant as an independent deep copy of a branch and make it active."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
	mcp.WithString("source", mcp.Description("Branch to copy. Defaults to 'original'.")),
)

var toolAddExercise = mcp.NewTool("add_exercise",
	mcp.WithDescription("Append an exercise to the day at the active position."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name")),
	mcp.WithString("sets", mcp.Description("Sets, e.g. '4'")),
	mcp.WithString("reps", mcp.Description("Reps, e.g. '8-10'")),
	mcp.WithString("intensity", mcp.Description("Load or intensity, e.g. 'RPE 8' or '75%'")),
	mcp.WithString("tut", mcp.Description("Time under tension, e.g. '3-1-1-0'")),
	mcp.WithString("recovery", mcp.Description("Rest between sets, e.g. '90s'")),
	mcp.WithString("notes", mcp.Description("Free-form notes")),
)

var toolLinkSuperset = mcp.NewTool("link_superset",
	mcp.WithDescription("Make one exercise of the active day follow another in a superset. The leader is promoted when needed."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
	mcp.WithString("leader", mcp.Required(), mcp.Description("Exercise id of the leader")),
	mcp.WithString("follower", mcp.Required(), mcp.Description("Exercise id of the follower")),
)

var toolCopy = mcp.NewTool("copy",
	mcp.WithDescription("Copy the day, week or branch at the active position to the program's clipboard."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
	mcp.WithString("scope", mcp.Required(), mcp.Description("What to copy"), mcp.Enum("day", "week", "branch")),
)

var toolPaste = mcp.NewTool("paste",
	mcp.WithDescription("Paste the clipboard at the active position. Pasting onto the copied position itself is refused."),
	mcp.WithString("program", mcp.Required(), mcp.Description("Program id")),
)

// --- Tool handlers ---

// isNotice reports whether err is a command refused without changes, either
// by the local editor or by the remote API.
func isNotice(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Notice
	}
	return editor.IsNotice(err)
}

func (h *handlers) fail(tool string, err error) *mcp.CallToolResult {
	if isNotice(err) {
		return mcp.NewToolResultError("notice: " + err.Error())
	}
	h.log.Error("mcp "+tool, "error", err)
	return mcp.NewToolResultError(tool + " failed: " + err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

func (h *handlers) listPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status models.Status
	if s := req.GetString("status", ""); s != "" {
		st, err := models.ParseStatus(s)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		status = st
	}
	list, err := h.ds.ListPrograms(ctx, status)
	if err != nil {
		return h.fail("list_programs", err), nil
	}
	if list == nil {
		list = []models.ProgramSummary{}
	}
	return jsonResult(list), nil
}

func (h *handlers) getProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	p, err := h.ds.GetProgram(ctx, id)
	if err != nil {
		return h.fail("get_program", err), nil
	}
	return jsonResult(p), nil
}

func (h *handlers) getDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	pos := models.Position{
		BranchID: req.GetString("branch", models.OriginalBranchID),
		WeekKey:  req.GetString("week", models.WeekKey(1)),
		DayKey:   req.GetString("day", models.DayKey(1)),
	}
	list, err := h.ds.GetDay(ctx, id, pos)
	if err != nil {
		return h.fail("get_day", err), nil
	}
	return jsonResult(list), nil
}

func (h *handlers) switchPosition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	pos := models.Position{
		BranchID: req.GetString("branch", ""),
		WeekKey:  req.GetString("week", ""),
		DayKey:   req.GetString("day", ""),
	}
	res, err := h.ds.Switch(ctx, id, pos)
	if err != nil {
		return h.fail("switch_position", err), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) addWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	res, err := h.ds.AddWeek(ctx, id)
	if err != nil {
		return h.fail("add_week", err), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) removeWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	week, err := req.RequireString("week")
	if err != nil {
		return mcp.NewToolResultError("week parameter is required"), nil
	}
	res, err := h.ds.RemoveWeek(ctx, id, week)
	if err != nil {
		return h.fail("remove_week", err), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) addDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	res, err := h.ds.AddDay(ctx, id)
	if err != nil {
		return h.fail("add_day", err), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) removeDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	day, err := req.RequireString("day")
	if err != nil {
		return mcp.NewToolResultError("day parameter is required"), nil
	}
	res, err := h.ds.RemoveDay(ctx, id, day)
	if err != nil {
		return h.fail("remove_day", err), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) cloneBranch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	res, err := h.ds.CloneBranch(ctx, id, req.GetString("source", models.OriginalBranchID))
	if err != nil {
		return h.fail("clone_branch", err), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) addExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	ex := models.Exercise{
		Name:             name,
		Sets:             req.GetString("sets", ""),
		Reps:             req.GetString("reps", ""),
		Intensity:        req.GetString("intensity", ""),
		TimeUnderTension: req.GetString("tut", ""),
		Recovery:         req.GetString("recovery", ""),
		Notes:            req.GetString("notes", ""),
	}
	res, err := h.ds.AddExercise(ctx, id, ex)
	if err != nil {
		return h.fail("add_exercise", err), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) linkSuperset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	leader, err := req.RequireString("leader")
	if err != nil {
		return mcp.NewToolResultError("leader parameter is required"), nil
	}
	follower, err := req.RequireString("follower")
	if err != nil {
		return mcp.NewToolResultError("follower parameter is required"), nil
	}
	res, err := h.ds.LinkSuperset(ctx, id, leader, follower)
	if err != nil {
		return h.fail("link_superset", err), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) copyToClipboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	scope, err := clipboard.ParseScope(req.GetString("scope", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := h.ds.Copy(ctx, id, scope)
	if err != nil {
		return h.fail("copy", err), nil
	}
	return jsonResult(res), nil
}

func (h *handlers) paste(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("program")
	if err != nil {
		return mcp.NewToolResultError("program parameter is required"), nil
	}
	res, err := h.ds.Paste(ctx, id)
	if err != nil {
		return h.fail("paste", err), nil
	}
	return jsonResult(res), nil
}
