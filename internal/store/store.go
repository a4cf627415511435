// Package store holds the ordered, in-memory list of workouts and applies
// every create, edit, delete and sort to it before persisting the result.
package store

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/claude/mapty/internal/models"
	"github.com/claude/mapty/internal/observability"
)

// Persister writes and reads the whole workout list.
type Persister interface {
	Save(ctx context.Context, ws []models.Workout) error
	Load(ctx context.Context) []models.Workout
}

// Store is the authoritative workout list. All methods are safe for
// concurrent use; each one runs under a single lock, including the save that
// follows a mutation.
type Store struct {
	mu       sync.Mutex
	workouts []models.Workout
	persist  Persister
	log      *slog.Logger
}

// New loads the persisted list and returns a ready store.
func New(ctx context.Context, p Persister, log *slog.Logger) *Store {
	s := &Store{
		workouts: slices.Clone(p.Load(ctx)),
		persist:  p,
		log:      log,
	}
	observability.SetWorkouts(len(s.workouts))
	return s
}

// Add validates in, appends a new workout and saves.
func (s *Store) Add(ctx context.Context, in models.Input) (models.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := models.New(in)
	if err != nil {
		observability.RecordOperation("add", observability.OutcomeRejected)
		return models.Workout{}, err
	}
	s.workouts = append(s.workouts, w)
	return w, s.commit(ctx, "add")
}

// Edit replaces the workout id with one built from m. The replacement keeps
// id, kind, coordinates and creation time. It is appended and the list is
// then re-sorted by date.
func (s *Store) Edit(ctx context.Context, id string, m models.Measurements) (models.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		observability.RecordOperation("edit", observability.OutcomeRejected)
		return models.Workout{}, ErrNotFound
	}
	next, err := s.workouts[i].Revise(m)
	if err != nil {
		observability.RecordOperation("edit", observability.OutcomeRejected)
		return models.Workout{}, err
	}

	s.workouts = slices.Delete(s.workouts, i, i+1)
	s.workouts = append(s.workouts, next)
	s.sortByDate()
	return next, s.commit(ctx, "edit")
}

// Remove deletes the workout id. An unknown id leaves the list untouched.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		observability.RecordOperation("remove", observability.OutcomeRejected)
		return ErrNotFound
	}
	s.workouts = slices.Delete(s.workouts, i, i+1)
	return s.commit(ctx, "remove")
}

// Clear removes every workout.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workouts = nil
	return s.commit(ctx, "clear")
}

// SortByDate orders the list oldest first. It does not save.
func (s *Store) SortByDate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortByDate()
}

// SortByField orders the list ascending by a numeric field and saves the new
// order. Kind-specific fields require every workout in the list to have
// them; otherwise the list is left as is.
func (s *Store) SortByField(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := models.ParseField(name)
	if !ok {
		observability.RecordOperation("sort", observability.OutcomeRejected)
		return &UnknownFieldError{Field: name}
	}
	for _, w := range s.workouts {
		if _, ok := w.Value(f); !ok {
			observability.RecordOperation("sort", observability.OutcomeRejected)
			return &UnknownFieldError{Field: name, Kind: w.Kind}
		}
	}

	slices.SortStableFunc(s.workouts, func(a, b models.Workout) int {
		av, _ := a.Value(f)
		bv, _ := b.Value(f)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	})
	return s.commit(ctx, "sort")
}

// Sort dispatches a sort request by name: "date" (or "createdAt") sorts by
// creation time and, unlike SortByDate, saves the order; anything else goes
// to SortByField.
func (s *Store) Sort(ctx context.Context, name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "date", "createdat":
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sortByDate()
		return s.commit(ctx, "sort")
	}
	return s.SortByField(ctx, name)
}

// Find returns the workout with id.
func (s *Store) Find(id string) (models.Workout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return models.Workout{}, false
	}
	return s.workouts[i], true
}

// All returns a copy of the list in its current order.
func (s *Store) All() []models.Workout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.workouts)
}

// Len returns the number of workouts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workouts)
}

// Click records one interaction with a workout and returns it. Clicks ride
// along with the next save.
func (s *Store) Click(id string) (models.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return models.Workout{}, ErrNotFound
	}
	s.workouts[i].Clicks++
	return s.workouts[i], nil
}

// Bounds returns the box enclosing every workout location. ok is false for an
// empty store.
func (s *Store) Bounds() (b models.Bounds, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.BoundsOf(s.workouts)
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.workouts, func(w models.Workout) bool { return w.ID == id })
}

func (s *Store) sortByDate() {
	slices.SortStableFunc(s.workouts, func(a, b models.Workout) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// commit persists the list after a mutation. The mutation is kept even when
// the save fails.
func (s *Store) commit(ctx context.Context, op string) error {
	observability.SetWorkouts(len(s.workouts))
	if err := s.persist.Save(ctx, slices.Clone(s.workouts)); err != nil {
		s.log.Warn("workouts changed but not saved", "op", op, "error", err)
		observability.RecordOperation(op, observability.OutcomeSaveFailed)
		return &SaveError{Err: err}
	}
	observability.RecordOperation(op, observability.OutcomeOK)
	return nil
}
