package mcp

import (
	"context"
	"errors"

	"github.com/claude/mapty/internal/models"
	"github.com/claude/mapty/internal/store"
)

// DataSource abstracts the workout store for MCP tools. Both StoreSource
// (in-process) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListWorkouts(ctx context.Context) ([]models.Workout, error)
	AddWorkout(ctx context.Context, in models.Input) (*Result, error)
	EditWorkout(ctx context.Context, id string, m models.Measurements) (*Result, error)
	DeleteWorkout(ctx context.Context, id string) (*Result, error)
	ClearWorkouts(ctx context.Context) (*Result, error)
	SortWorkouts(ctx context.Context, field string) (*Result, error)
	WorkoutBounds(ctx context.Context) (*models.Bounds, error)
}

// Result is the outcome of a mutation, with the list as it stands afterwards.
// It has the same JSON shape as the REST API's mutation responses. Warning is set when the change was applied but
// not saved.
type Result struct {
	Workout  *models.Workout  `json:"workout,omitempty"`
	Workouts []models.Workout `json:"workouts"`
	Warning  string           `json:"warning,omitempty"`
}

// StoreSource serves tools from an in-process store.
type StoreSource struct {
	st *store.Store
}

// Compile-time check: *StoreSource satisfies DataSource.
var _ DataSource = (*StoreSource)(nil)

// NewStoreSource wraps st.
func NewStoreSource(st *store.Store) *StoreSource {
	return &StoreSource{st: st}
}

func (s *StoreSource) ListWorkouts(context.Context) ([]models.Workout, error) {
	return s.st.All(), nil
}

func (s *StoreSource) AddWorkout(ctx context.Context, in models.Input) (*Result, error) {
	w, err := s.st.Add(ctx, in)
	return s.withWorkout(w, err)
}

func (s *StoreSource) EditWorkout(ctx context.Context, id string, m models.Measurements) (*Result, error) {
	w, err := s.st.Edit(ctx, id, m)
	return s.withWorkout(w, err)
}

func (s *StoreSource) DeleteWorkout(ctx context.Context, id string) (*Result, error) {
	return s.result(s.st.Remove(ctx, id))
}

func (s *StoreSource) ClearWorkouts(ctx context.Context) (*Result, error) {
	return s.result(s.st.Clear(ctx))
}

func (s *StoreSource) SortWorkouts(ctx context.Context, field string) (*Result, error) {
	return s.result(s.st.Sort(ctx, field))
}

func (s *StoreSource) WorkoutBounds(context.Context) (*models.Bounds, error) {
	b, ok := s.st.Bounds()
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// result turns a store error into a Result, keeping save failures as warnings.
func (s *StoreSource) result(err error) (*Result, error) {
	res := &Result{}
	if err != nil {
		if !errors.Is(err, store.ErrSave) {
			return nil, err
		}
		res.Warning = err.Error()
	}
	res.Workouts = nonNil(s.st.All())
	return res, nil
}

func (s *StoreSource) withWorkout(w models.Workout, err error) (*Result, error) {
	res, err := s.result(err)
	if err != nil {
		return nil, err
	}
	res.Workout = &w
	return res, nil
}
