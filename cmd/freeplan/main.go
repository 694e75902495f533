package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/freeplan/internal/config"
	"github.com/claude/freeplan/internal/editor"
	"github.com/claude/freeplan/internal/ids"
	"github.com/claude/freeplan/internal/mcp"
	"github.com/claude/freeplan/internal/server"
	"github.com/claude/freeplan/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// store is a program store that may also list import logs.
type store interface {
	editor.Store
	server.ImportLogs
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("FreePlan starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	programs, closeStore, err := openStore(ctx, cfg.Database, log, *migrateOnly)
	if err != nil {
		log.Error("failed to open store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Editor sessions persist through the store
	manager := editor.NewManager(programs, ids.UUID{}, log)

	// Create server
	srv := server.New(manager, cfg.Auth, log)
	srv.SetImportLogs(programs)
	srv.Mount("/mcp", mcp.Handler(mcp.New(mcp.NewLocal(manager), Version, log)))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	manager.Close()
	log.Info("server stopped")
}

// openStore connects the configured database. Postgres migrations are
// applied first.
func openStore(ctx context.Context, db config.DatabaseConfig, log *slog.Logger, migrateOnly bool) (store, func(), error) {
	switch db.Driver {
	case config.DriverSQLite:
		s, err := storage.OpenSQLite(db.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database opened", "driver", db.Driver, "path", db.Path)
		return s, func() { s.Close() }, nil
	default:
		dsn := db.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			return nil, nil, err
		}
		log.Info("migrations applied")
		if migrateOnly {
			return nil, func() {}, nil
		}
		s, err := storage.New(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database connected")
		return s, s.Close, nil
	}
}
