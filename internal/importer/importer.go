// Package importer loads program documents written by hand or exported from
// another installation into the program store.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/freeplan/internal/ids"
	"github.com/claude/freeplan/internal/models"
	"github.com/claude/freeplan/internal/storage"
	"github.com/claude/freeplan/internal/workout"
	"gopkg.in/yaml.v3"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	ProgramsStored   int
	ProgramsReplaced int
	IDsGenerated     int
	KeysDropped      int

	ErroredFiles []string
}

// Store is where imported programs are written.
type Store interface {
	GetProgram(ctx context.Context, id string) (*models.Program, error)
	PutProgram(ctx context.Context, p *models.Program) error
}

// LogStore records import runs.
type LogStore interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
}

var (
	_ Store    = (*storage.DB)(nil)
	_ Store    = (*storage.SQLite)(nil)
	_ Store    = (*storage.Memory)(nil)
	_ LogStore = (*storage.DB)(nil)
	_ LogStore = (*storage.SQLite)(nil)
)

// Importer reads program documents from a directory and stores them.
type Importer struct {
	store  Store
	logs   LogStore
	gen    ids.Generator
	log    *slog.Logger
	dryRun bool
	now    func() time.Time
	stats  Stats
}

// New creates a new Importer. Missing ids are minted by gen.
func New(store Store, gen ids.Generator, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, gen: gen, log: log, dryRun: dryRun, now: time.Now}
}

// SetLogStore records every non-dry run in logs.
func (imp *Importer) SetLogStore(logs LogStore) {
	imp.logs = logs
}

// Import processes every .yaml, .yml and .json file directly under dir.
// Files that fail to parse are counted and skipped.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	start := time.Now()
	logID := imp.startLog(ctx, dir)

	err := imp.importDir(ctx, dir)

	imp.finishLog(ctx, logID, start, err)
	return &imp.stats, err
}

func (imp *Importer) importDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		format := formatOf(entry.Name())
		if format == "" {
			imp.log.Debug("skipping file", "file", path)
			imp.stats.FilesSkipped++
			continue
		}

		p, err := readProgram(path, format)
		if err != nil {
			imp.log.Warn("parse failed", "file", path, "error", err)
			imp.stats.FilesErrored++
			imp.stats.ErroredFiles = append(imp.stats.ErroredFiles, entry.Name())
			continue
		}
		imp.stats.FilesProcessed++

		imp.prepare(p, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		if imp.dryRun {
			imp.log.Info("would store program", "file", path, "program", p.ID, "variants", len(p.Variants))
			continue
		}
		_, err = imp.store.GetProgram(ctx, p.ID)
		replaced := err == nil
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("checking program %s: %w", p.ID, err)
		}
		if err := imp.store.PutProgram(ctx, p); err != nil {
			return fmt.Errorf("storing program %s from %s: %w", p.ID, path, err)
		}
		imp.stats.ProgramsStored++
		if replaced {
			imp.stats.ProgramsReplaced++
		}
		imp.log.Info("program stored", "file", path, "program", p.ID, "replaced", replaced)
	}
	return nil
}

func formatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	}
	return ""
}

func readProgram(path, format string) (*models.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p models.Program
	switch format {
	case "json":
		err = json.Unmarshal(data, &p)
	default:
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// prepare fills in what a hand-written document may leave out and restores
// the structural invariants.
func (imp *Importer) prepare(p *models.Program, name string) {
	if p.ID == "" {
		p.ID = imp.nextID()
	}
	if p.Title == "" {
		p.Title = name
	}

	number := 0
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.ID == "" || v.ID == models.OriginalBranchID {
			v.ID = imp.nextID()
		}
		number = max(number+1, v.Number)
		v.Number = number
		if v.Name == "" {
			v.Name = workout.VariantName(v.Number)
		}
	}

	for _, b := range p.Branches() {
		imp.stats.KeysDropped += workout.DropInvalidKeys(b)
		for _, wk := range workout.WeekKeys(b) {
			for _, dk := range models.SortedKeys(b.Weeks[wk]) {
				list := b.Weeks[wk][dk]
				seen := make(map[string]bool, len(list))
				for i := range list {
					if list[i].ID == "" || seen[list[i].ID] {
						imp.renameExercise(list, i)
					}
					seen[list[i].ID] = true
				}
			}
		}
	}
	workout.Repair(p)

	now := imp.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// renameExercise gives list[i] a fresh id. A renamed leader takes the
// followers after it, up to the next exercise still holding the old id.
func (imp *Importer) renameExercise(list []models.Exercise, i int) {
	old := list[i].ID
	list[i].ID = imp.nextID()
	if !list[i].Superset.IsLeader() {
		return
	}
	list[i].Superset = models.Leader(list[i].ID)
	if old == "" {
		return
	}
	for j := i + 1; j < len(list) && list[j].ID != old; j++ {
		if list[j].Superset.IsFollower() && list[j].Superset.GroupID() == old {
			list[j].Superset = models.Follower(list[i].ID)
		}
	}
}

func (imp *Importer) nextID() string {
	imp.stats.IDsGenerated++
	return imp.gen.NextID()
}

func (imp *Importer) startLog(ctx context.Context, dir string) int64 {
	if imp.logs == nil || imp.dryRun {
		return 0
	}
	id, err := imp.logs.InsertImportLog(ctx, storage.ImportLog{Source: dir, Status: "running"})
	if err != nil {
		imp.log.Error("failed to log import", "source", dir, "error", err)
		return 0
	}
	return id
}

func (imp *Importer) finishLog(ctx context.Context, id int64, start time.Time, importErr error) {
	if id == 0 {
		return
	}
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	}
	durationMs := int(time.Since(start).Milliseconds())
	entry := storage.ImportLog{
		Status:         status,
		FilesRead:      imp.stats.FilesProcessed,
		ProgramsStored: imp.stats.ProgramsStored,
		DurationMs:     &durationMs,
		ErrorMessage:   errMsg,
	}
	if err := imp.logs.UpdateImportLog(ctx, id, entry); err != nil {
		imp.log.Error("failed to log import", "id", id, "error", err)
	}
}
