package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/freeplan/internal/editor"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FreePlan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FreePlan workout program editor. Programs hold an original branch and variants, each with weeks W1..W12 and days G1..G10. Exercise, copy and paste commands act at the active position; use switch_position to move it. Commands refused by the editor return a notice and change nothing."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListPrograms, Handler: h.listPrograms},
		server.ServerTool{Tool: toolGetProgram, Handler: h.getProgram},
		server.ServerTool{Tool: toolGetDay, Handler: h.getDay},
		server.ServerTool{Tool: toolSwitchPosition, Handler: h.switchPosition},
		server.ServerTool{Tool: toolAddWeek, Handler: h.addWeek},
		server.ServerTool{Tool: toolRemoveWeek, Handler: h.removeWeek},
		server.ServerTool{Tool: toolAddDay, Handler: h.addDay},
		server.ServerTool{Tool: toolRemoveDay, Handler: h.removeDay},
		server.ServerTool{Tool: toolCloneBranch, Handler: h.cloneBranch},
		server.ServerTool{Tool: toolAddExercise, Handler: h.addExercise},
		server.ServerTool{Tool: toolLinkSuperset, Handler: h.linkSuperset},
		server.ServerTool{Tool: toolCopy, Handler: h.copyToClipboard},
		server.ServerTool{Tool: toolPaste, Handler: h.paste},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resPrograms, Handler: h.programs},
	)

	return s
}

// Handler serves s over streamable HTTP. The editor access of the incoming
// request is carried into every tool call.
func Handler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return editor.WithAccess(ctx, editor.AccessFromContext(r.Context()))
		}),
	)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resPrograms = mcp.NewResource(
	"freeplan://programs",
	"Programs",
	mcp.WithResourceDescription("Every program you can open, with title, tags, number of variants and last change"),
	mcp.WithMIMEType("application/json"),
)
