package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/freeplan/internal/config"
	"github.com/claude/freeplan/internal/ids"
	"github.com/claude/freeplan/internal/importer"
	"github.com/claude/freeplan/internal/storage"
)

// target is a store that also records import runs.
type target interface {
	importer.Store
	importer.LogStore
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dirPath := flag.String("path", "", "directory of .yaml, .yml or .json program documents (required)")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *dirPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: freeplan-import -config config.yaml -path /path/to/programs [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Verify program directory exists
	info, err := os.Stat(*dirPath)
	if err != nil || !info.IsDir() {
		log.Error("program path does not exist or is not a directory", "path", *dirPath)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: no programs will be written to the database")
	}

	var store target
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := storage.OpenSQLite(cfg.Database.Path)
		if err != nil {
			log.Error("failed to open database", "path", cfg.Database.Path, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	default:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}
	log.Info("database connected", "driver", cfg.Database.Driver)

	// Run import
	imp := importer.New(store, ids.UUID{}, log, *dryRun)
	imp.SetLogStore(store)
	stats, err := imp.Import(ctx, *dirPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"programs_stored", stats.ProgramsStored,
		"programs_replaced", stats.ProgramsReplaced,
		"ids_generated", stats.IDsGenerated,
		"keys_dropped", stats.KeysDropped,
	)
	if len(stats.ErroredFiles) > 0 {
		log.Info("files that could not be parsed", "files", stats.ErroredFiles)
	}
}
