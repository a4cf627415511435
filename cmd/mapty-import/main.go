package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/mapty/internal/config"
	"github.com/claude/mapty/internal/importer"
	"github.com/claude/mapty/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	file := flag.String("file", "", "path to a browser export (.json, .json.gz or .json.zst) (required)")
	dryRun := flag.Bool("dry-run", false, "report counts without saving")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *file == "" {
		fmt.Fprintf(os.Stderr, "Usage: mapty-import -config config.yaml -file export.json [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var slot storage.Slot
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Error("memory backend has nothing to import into")
		os.Exit(1)
	case config.BackendPostgres:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		slot = db
	default:
		slot, err = storage.OpenSQLite(cfg.Storage.SQLiteDir)
		if err != nil {
			log.Error("failed to open sqlite slot", "error", err)
			os.Exit(1)
		}
	}
	defer slot.Close()

	if *dryRun {
		log.Info("DRY RUN mode: nothing will be saved")
	}

	imp := importer.New(storage.NewWorkouts(slot, log), log, *dryRun)
	stats, err := imp.Import(ctx, *file)
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
		"records_read", stats.RecordsRead,
		"imported", stats.Imported,
		"duplicates", stats.Duplicates,
		"skipped", stats.Skipped,
		"total", stats.Total,
	)
}
