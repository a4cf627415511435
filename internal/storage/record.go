package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/claude/mapty/internal/models"
	"github.com/google/uuid"
)

// ErrUnknownKind marks a stored record whose kind is neither running nor cycling.
var ErrUnknownKind = errors.New("unknown workout kind")

// record is the persisted shape of one workout. Derived values and the
// description are written for humans and other readers; they are never read
// back.
type record struct {
	ID             string             `json:"id"`
	Kind           models.Kind        `json:"kind"`
	Coordinates    models.Coordinates `json:"coordinates"`
	DistanceKm     float64            `json:"distanceKm"`
	DurationMin    float64            `json:"durationMin"`
	CreatedAt      time.Time          `json:"createdAt"`
	Description    string             `json:"description,omitempty"`
	ClickCount     int                `json:"clickCount"`
	CadenceSPM     *float64           `json:"cadenceSpm,omitempty"`
	PaceMinPerKm   *float64           `json:"paceMinPerKm,omitempty"`
	ElevationGainM *float64           `json:"elevationGainM,omitempty"`
	SpeedKmPerH    *float64           `json:"speedKmPerH,omitempty"`
}

func toRecord(w models.Workout) record {
	r := record{
		ID:          w.ID,
		Kind:        w.Kind,
		Coordinates: w.Coords,
		DistanceKm:  w.DistanceKm,
		DurationMin: w.DurationMin,
		CreatedAt:   w.CreatedAt.UTC(),
		Description: w.Description,
		ClickCount:  w.Clicks,
	}
	switch w.Kind {
	case models.KindRunning:
		if w.Running != nil {
			r.CadenceSPM = ptr(w.Running.CadenceSPM)
			r.PaceMinPerKm = ptr(w.Running.PaceMinPerKm)
		}
	case models.KindCycling:
		if w.Cycling != nil {
			r.ElevationGainM = ptr(w.Cycling.ElevationGainM)
			r.SpeedKmPerH = ptr(w.Cycling.SpeedKmPerH)
		}
	}
	return r
}

// storedRecord is what Decode accepts: the current layout plus the field
// names the browser version wrote to localStorage (type, coords, distance,
// duration, date, clicks, cadence, elevationGain).
type storedRecord struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Type string `json:"type"`

	Coordinates *models.Coordinates `json:"coordinates"`
	Coords      *models.Coordinates `json:"coords"`

	DistanceKm  *float64 `json:"distanceKm"`
	Distance    *float64 `json:"distance"`
	DurationMin *float64 `json:"durationMin"`
	Duration    *float64 `json:"duration"`

	CreatedAt flexTime `json:"createdAt"`
	Date      flexTime `json:"date"`

	ClickCount *int `json:"clickCount"`
	Clicks     *int `json:"clicks"`

	CadenceSPM     *float64 `json:"cadenceSpm"`
	Cadence        *float64 `json:"cadence"`
	ElevationGainM *float64 `json:"elevationGainM"`
	ElevationGain  *float64 `json:"elevationGain"`
}

func (r storedRecord) workout() (models.Workout, error) {
	kindName := first(r.Kind, r.Type)
	kind, err := models.ParseKind(kindName)
	if err != nil {
		return models.Workout{}, fmt.Errorf("%w: %q", ErrUnknownKind, kindName)
	}

	coords := r.Coordinates
	if coords == nil {
		coords = r.Coords
	}
	if coords == nil {
		return models.Workout{}, fmt.Errorf("missing coordinates")
	}

	created := r.CreatedAt.Time
	if created.IsZero() {
		created = r.Date.Time
	}

	in := models.Input{
		Kind:   kind,
		Coords: *coords,
		Measurements: models.Measurements{
			DistanceKm:     firstNum(r.DistanceKm, r.Distance),
			DurationMin:    firstNum(r.DurationMin, r.Duration),
			CadenceSPM:     firstNum(r.CadenceSPM, r.Cadence),
			ElevationGainM: firstNum(r.ElevationGainM, r.ElevationGain),
		},
	}

	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	w, err := models.Restore(id, created, in)
	if err != nil {
		return models.Workout{}, err
	}
	if r.ClickCount != nil {
		w.Clicks = *r.ClickCount
	} else if r.Clicks != nil {
		w.Clicks = *r.Clicks
	}
	return w, nil
}

// SkippedRecord describes a stored record that could not be rebuilt.
type SkippedRecord struct {
	Index int
	Err   error
}

// Encode serializes workouts, in order, as a JSON array.
func Encode(ws []models.Workout) ([]byte, error) {
	records := make([]record, 0, len(ws))
	for _, w := range ws {
		records = append(records, toRecord(w))
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding workouts: %w", err)
	}
	return data, nil
}

// Decode parses a JSON array of workout records. Records with an unknown
// kind or invalid values are skipped and reported; err is only set when the
// payload as a whole is not a JSON array of objects. A record repeating an
// earlier id gets a fresh one so every workout stays addressable.
func Decode(data []byte) (ws []models.Workout, skipped []SkippedRecord, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decoding workouts: %w", err)
	}

	ws = make([]models.Workout, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, msg := range raw {
		var r storedRecord
		if err := json.Unmarshal(msg, &r); err != nil {
			skipped = append(skipped, SkippedRecord{Index: i, Err: fmt.Errorf("decoding record: %w", err)})
			continue
		}
		w, err := r.workout()
		if err != nil {
			skipped = append(skipped, SkippedRecord{Index: i, Err: err})
			continue
		}
		if seen[w.ID] {
			w.ID = uuid.NewString()
		}
		seen[w.ID] = true
		ws = append(ws, w)
	}
	return ws, skipped, nil
}

// flexTime accepts an RFC 3339 string or epoch milliseconds.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.Time = time.UnixMilli(ms)
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("cannot parse time %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("cannot parse time %s: %w", data, err)
	}
	t.Time = time.UnixMilli(int64(ms))
	return nil
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNum(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

func ptr[T any](v T) *T { return &v }
