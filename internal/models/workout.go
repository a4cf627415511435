package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind discriminates the workout variants.
type Kind string

const (
	KindRunning Kind = "running"
	KindCycling Kind = "cycling"
)

// ParseKind maps a case-insensitive kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindRunning:
		return KindRunning, nil
	case KindCycling:
		return KindCycling, nil
	}
	return "", fmt.Errorf("unknown workout kind %q", s)
}

// Coordinates is a (latitude, longitude) pair. It encodes as a two-element
// JSON array, the same shape the map layer hands out.
type Coordinates struct {
	Lat float64
	Lng float64
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinates: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinates: want [lat, lng], got %d values", len(pair))
	}
	c.Lat, c.Lng = pair[0], pair[1]
	return nil
}

// RunningStats holds the running-only fields.
type RunningStats struct {
	CadenceSPM   float64 `json:"cadenceSpm"`
	PaceMinPerKm float64 `json:"paceMinPerKm"`
}

// CyclingStats holds the cycling-only fields.
type CyclingStats struct {
	ElevationGainM float64 `json:"elevationGainM"`
	SpeedKmPerH    float64 `json:"speedKmPerH"`
}

// Workout is a single logged exercise session. Exactly one of Running or
// Cycling is set, matching Kind. Values are produced only by New and Restore;
// every field except Clicks is fixed once constructed.
type Workout struct {
	ID          string        `json:"id"`
	Kind        Kind          `json:"kind"`
	Coords      Coordinates   `json:"coordinates"`
	DistanceKm  float64       `json:"distanceKm"`
	DurationMin float64       `json:"durationMin"`
	CreatedAt   time.Time     `json:"createdAt"`
	Description string        `json:"description"`
	Clicks      int           `json:"clickCount"`
	Running     *RunningStats `json:"running,omitempty"`
	Cycling     *CyclingStats `json:"cycling,omitempty"`
}

// Measurements are the user-editable numbers of a workout. Only the
// kind-specific field matching the workout's kind is read.
type Measurements struct {
	DistanceKm     float64 `json:"distanceKm"`
	DurationMin    float64 `json:"durationMin"`
	CadenceSPM     float64 `json:"cadenceSpm,omitempty"`
	ElevationGainM float64 `json:"elevationGainM,omitempty"`
}

// Input is everything needed to construct a workout.
type Input struct {
	Kind   Kind
	Coords Coordinates
	Measurements
}

// New validates in and builds a workout with a fresh id, stamped now.
func New(in Input) (Workout, error) {
	return build(uuid.NewString(), time.Now(), in)
}

// Restore rebuilds a workout from stored identity and creation time.
// Derived metrics and the description are recomputed.
func Restore(id string, createdAt time.Time, in Input) (Workout, error) {
	if id == "" {
		return Workout{}, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if createdAt.IsZero() {
		return Workout{}, &ValidationError{Field: "createdAt", Reason: "must be set"}
	}
	return build(id, createdAt, in)
}

func build(id string, createdAt time.Time, in Input) (Workout, error) {
	if err := Validate(in); err != nil {
		return Workout{}, err
	}
	w := Workout{
		ID:          id,
		Kind:        in.Kind,
		Coords:      in.Coords,
		DistanceKm:  in.DistanceKm,
		DurationMin: in.DurationMin,
		CreatedAt:   createdAt,
		Description: Describe(in.Kind, createdAt),
	}
	switch in.Kind {
	case KindRunning:
		w.Running = &RunningStats{
			CadenceSPM:   in.CadenceSPM,
			PaceMinPerKm: Pace(in.DistanceKm, in.DurationMin),
		}
	case KindCycling:
		w.Cycling = &CyclingStats{
			ElevationGainM: in.ElevationGainM,
			SpeedKmPerH:    Speed(in.DistanceKm, in.DurationMin),
		}
	}
	return w, nil
}

// Validate checks in without building anything.
//
// Cadence must be positive; elevation gain only has to be finite, since a
// ride can end lower than it started.
func Validate(in Input) error {
	if !finite(in.Coords.Lat) || !finite(in.Coords.Lng) {
		return &ValidationError{Field: "coordinates", Reason: "must be finite"}
	}
	if err := positive("distanceKm", in.DistanceKm); err != nil {
		return err
	}
	if err := positive("durationMin", in.DurationMin); err != nil {
		return err
	}
	switch in.Kind {
	case KindRunning:
		// Tiny distances overflow the pace, which JSON cannot encode.
		if !finite(Pace(in.DistanceKm, in.DurationMin)) {
			return &ValidationError{Field: "distanceKm", Reason: "yields a non-finite pace"}
		}
		return positive("cadenceSpm", in.CadenceSPM)
	case KindCycling:
		if !finite(Speed(in.DistanceKm, in.DurationMin)) {
			return &ValidationError{Field: "durationMin", Reason: "yields a non-finite speed"}
		}
		if !finite(in.ElevationGainM) {
			return &ValidationError{Field: "elevationGainM", Reason: "must be a finite number"}
		}
		return nil
	}
	return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", in.Kind)}
}

func positive(field string, v float64) error {
	if !finite(v) {
		return &ValidationError{Field: field, Reason: "must be a finite number"}
	}
	if v <= 0 {
		return &ValidationError{Field: field, Reason: "must be positive"}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Describe renders "<Kind> on <Month> <day>" in local time, e.g.
// "Running on October 19".
func Describe(k Kind, t time.Time) string {
	// Casers carry state and must not be shared across goroutines.
	return cases.Title(language.English).String(string(k)) + " on " + t.Local().Format("January 2")
}

// Input returns the construction input that would rebuild w.
func (w Workout) Input() Input {
	in := Input{
		Kind:   w.Kind,
		Coords: w.Coords,
		Measurements: Measurements{
			DistanceKm:  w.DistanceKm,
			DurationMin: w.DurationMin,
		},
	}
	switch w.Kind {
	case KindRunning:
		if w.Running != nil {
			in.CadenceSPM = w.Running.CadenceSPM
		}
	case KindCycling:
		if w.Cycling != nil {
			in.ElevationGainM = w.Cycling.ElevationGainM
		}
	}
	return in
}

// Revise builds the replacement for an edit: same id, kind, coordinates and
// creation time, new measurements.
func (w Workout) Revise(m Measurements) (Workout, error) {
	in := w.Input()
	in.Measurements = m
	next, err := Restore(w.ID, w.CreatedAt, in)
	if err != nil {
		return Workout{}, err
	}
	next.Clicks = w.Clicks
	return next, nil
}
