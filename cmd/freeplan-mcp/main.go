package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/freeplan/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// freeplan-mcp serves the MCP tools over stdio against a remote FreePlan
// server, for MCP clients that only speak stdio.
func main() {
	serverURL := flag.String("url", os.Getenv("FREEPLAN_URL"), "base URL of the FreePlan server (or FREEPLAN_URL)")
	apiKey := flag.String("api-key", os.Getenv("FREEPLAN_AUTH_API_KEY"), "API key (or FREEPLAN_AUTH_API_KEY)")
	flag.Parse()

	// stdout carries the protocol; log to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: freeplan-mcp -url http://freeplan [-api-key KEY]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.Info("FreePlan MCP starting", "version", Version, "server", *serverURL)
	s := mcp.New(mcp.NewHTTPClient(*serverURL, *apiKey), Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("stdio server failed", "error", err)
		os.Exit(1)
	}
}
