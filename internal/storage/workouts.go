package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/claude/mapty/internal/models"
	"github.com/claude/mapty/internal/observability"
)

// WorkoutsKey is the slot key holding the serialized workout list.
const WorkoutsKey = "workouts"

// Workouts saves and loads the full workout list through a Slot.
type Workouts struct {
	slot Slot
	log  *slog.Logger
}

// NewWorkouts creates a workout persister backed by slot.
func NewWorkouts(slot Slot, log *slog.Logger) *Workouts {
	return &Workouts{slot: slot, log: log}
}

// Save overwrites the slot with ws, in order.
func (p *Workouts) Save(ctx context.Context, ws []models.Workout) error {
	data, err := Encode(ws)
	if err != nil {
		observability.RecordSave(err)
		return err
	}
	if err := p.slot.Put(ctx, WorkoutsKey, data); err != nil {
		observability.RecordSave(err)
		return fmt.Errorf("saving workouts: %w", err)
	}
	observability.RecordSave(nil)
	return nil
}

// Read returns the stored workouts in saved order along with the records
// that could not be rebuilt. An empty slot yields no workouts and no error;
// a read failure or a corrupt list is returned as an error.
func (p *Workouts) Read(ctx context.Context) ([]models.Workout, []SkippedRecord, error) {
	data, err := p.slot.Get(ctx, WorkoutsKey)
	if errors.Is(err, ErrSlotEmpty) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading workouts: %w", err)
	}
	return Decode(data)
}

// Load returns the stored workouts in saved order. It never fails: an empty,
// unreadable or corrupt slot yields an empty list, and individual bad
// records are skipped.
func (p *Workouts) Load(ctx context.Context) []models.Workout {
	ws, skipped, err := p.Read(ctx)
	if err != nil {
		p.log.Warn("stored workouts unusable, starting empty", "error", err)
		return nil
	}
	for _, s := range skipped {
		p.log.Warn("skipping stored workout", "index", s.Index, "error", s.Err)
	}
	observability.RecordLoad(len(ws), len(skipped))
	p.log.Info("workouts loaded", "count", len(ws), "skipped", len(skipped))
	return ws
}

// Reset deletes the stored list.
func (p *Workouts) Reset(ctx context.Context) error {
	if err := p.slot.Delete(ctx, WorkoutsKey); err != nil {
		return fmt.Errorf("resetting workouts: %w", err)
	}
	return nil
}
