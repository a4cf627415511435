package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/claude/mapty/internal/models"
	"github.com/claude/mapty/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	RecordsRead int
	Imported    int
	Duplicates  int
	Skipped     int
	Total       int
}

// Target is the stored list an import merges into. Read must be strict:
// anything but an empty slot that cannot be read in full is an error.
type Target interface {
	Read(ctx context.Context) ([]models.Workout, []storage.SkippedRecord, error)
	Save(ctx context.Context, ws []models.Workout) error
}

// Importer merges workouts from a browser export into the persisted list.
// It writes through the persister directly, so the server should not be
// running against the same slot.
type Importer struct {
	target Target
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer.
func New(target Target, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{target: target, log: log, dryRun: dryRun}
}

// Import reads the export at path and appends every workout whose id is not
// already stored. The merged list is ordered by creation date.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	data, err := ReadExport(path)
	if err != nil {
		return &imp.stats, err
	}
	payload, err := ExtractWorkouts(data)
	if err != nil {
		return &imp.stats, fmt.Errorf("reading export: %w", err)
	}

	incoming, skipped, err := storage.Decode(payload)
	if err != nil {
		return &imp.stats, err
	}
	imp.stats.RecordsRead = len(incoming) + len(skipped)
	imp.stats.Skipped = len(skipped)
	for _, s := range skipped {
		imp.log.Warn("skipping exported workout", "index", s.Index, "error", s.Err)
	}

	// Saving replaces the whole list, so anything unread would be lost.
	existing, unreadable, err := imp.target.Read(ctx)
	if err != nil {
		return &imp.stats, fmt.Errorf("reading stored workouts: %w", err)
	}
	if len(unreadable) > 0 {
		return &imp.stats, fmt.Errorf("%d stored workouts cannot be read (first at index %d: %v); refusing to overwrite them",
			len(unreadable), unreadable[0].Index, unreadable[0].Err)
	}
	seen := make(map[string]bool, len(existing))
	for _, w := range existing {
		seen[w.ID] = true
	}

	merged := slices.Clone(existing)
	for _, w := range incoming {
		if seen[w.ID] {
			imp.stats.Duplicates++
			continue
		}
		seen[w.ID] = true
		merged = append(merged, w)
		imp.stats.Imported++
	}
	slices.SortStableFunc(merged, func(a, b models.Workout) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	imp.stats.Total = len(merged)

	if imp.dryRun || imp.stats.Imported == 0 {
		return &imp.stats, nil
	}
	if err := imp.target.Save(ctx, merged); err != nil {
		return &imp.stats, fmt.Errorf("saving merged workouts: %w", err)
	}
	return &imp.stats, nil
}

// ExtractWorkouts finds the workout array in an export. It accepts the array
// itself, or an object of localStorage entries whose "workouts" value is the
// array or a string holding it.
func ExtractWorkouts(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty export")
	}
	if data[0] == '[' {
		return data, nil
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("export is neither an array nor an object: %w", err)
	}
	raw, ok := entries[storage.WorkoutsKey]
	if !ok {
		return nil, fmt.Errorf("export has no %q entry", storage.WorkoutsKey)
	}

	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		return []byte(inner), nil
	}
	return raw, nil
}
