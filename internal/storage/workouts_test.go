package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/claude/mapty/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleWorkouts(t *testing.T) []models.Workout {
	t.Helper()
	created := time.Date(2026, 4, 12, 6, 45, 0, 0, time.UTC)
	run, err := models.Restore("run-1", created, models.Input{
		Kind:         models.KindRunning,
		Coords:       models.Coordinates{Lat: 39, Lng: -12},
		Measurements: models.Measurements{DistanceKm: 5.2, DurationMin: 24, CadenceSPM: 178},
	})
	require.NoError(t, err)
	run.Clicks = 2

	ride, err := models.Restore("ride-1", created.Add(26*time.Hour), models.Input{
		Kind:         models.KindCycling,
		Coords:       models.Coordinates{Lat: 38.7, Lng: -9.1},
		Measurements: models.Measurements{DistanceKm: 27, DurationMin: 95, ElevationGainM: -40},
	})
	require.NoError(t, err)
	return []models.Workout{run, ride}
}

// assertSameWorkouts compares everything a reload must keep, with creation
// times compared as instants.
func assertSameWorkouts(t *testing.T, want, got []models.Workout) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.Kind, g.Kind)
		assert.Equal(t, w.Coords, g.Coords)
		assert.Equal(t, w.DistanceKm, g.DistanceKm)
		assert.Equal(t, w.DurationMin, g.DurationMin)
		assert.True(t, w.CreatedAt.Equal(g.CreatedAt), "createdAt %v != %v", w.CreatedAt, g.CreatedAt)
		assert.Equal(t, w.Description, g.Description)
		assert.Equal(t, w.Running, g.Running)
		assert.Equal(t, w.Cycling, g.Cycling)
		assert.Equal(t, w.Clicks, g.Clicks)
	}
}

func TestWorkoutsRoundTripMemory(t *testing.T) {
	ctx := context.Background()
	p := NewWorkouts(NewMemorySlot(), discardLogger())
	want := sampleWorkouts(t)

	require.NoError(t, p.Save(ctx, want))
	assertSameWorkouts(t, want, p.Load(ctx))
}

// TestWorkoutsRoundTripSQLite verifies the list survives closing and
// reopening the database file.
func TestWorkoutsRoundTripSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	want := sampleWorkouts(t)

	slot, err := OpenSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, NewWorkouts(slot, discardLogger()).Save(ctx, want))
	require.NoError(t, slot.Close())

	slot, err = OpenSQLite(dir)
	require.NoError(t, err)
	defer slot.Close()
	assertSameWorkouts(t, want, NewWorkouts(slot, discardLogger()).Load(ctx))
}

func TestWorkoutsSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	p := NewWorkouts(NewMemorySlot(), discardLogger())
	ws := sampleWorkouts(t)

	require.NoError(t, p.Save(ctx, ws))
	require.NoError(t, p.Save(ctx, ws[1:]))
	got := p.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "ride-1", got[0].ID)
}

func TestWorkoutsLoadMissing(t *testing.T) {
	p := NewWorkouts(NewMemorySlot(), discardLogger())
	assert.Empty(t, p.Load(context.Background()))
}

func TestWorkoutsLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	require.NoError(t, slot.Put(ctx, WorkoutsKey, []byte(`{not json`)))

	assert.Empty(t, NewWorkouts(slot, discardLogger()).Load(ctx))
}

func TestWorkoutsReset(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	p := NewWorkouts(slot, discardLogger())
	require.NoError(t, p.Save(ctx, sampleWorkouts(t)))

	require.NoError(t, p.Reset(ctx))
	_, err := slot.Get(ctx, WorkoutsKey)
	assert.ErrorIs(t, err, ErrSlotEmpty)
	assert.Empty(t, p.Load(ctx))
}

// brokenSlot fails every call.
type brokenSlot struct{}

var errBroken = errors.New("storage unavailable")

func (brokenSlot) Get(context.Context, string) ([]byte, error) { return nil, errBroken }
func (brokenSlot) Put(context.Context, string, []byte) error { return errBroken }
func (brokenSlot) Delete(context.Context, string) error { return errBroken }
func (brokenSlot) Close() error { return nil }

func TestWorkoutsBrokenSlot(t *testing.T) {
	ctx := context.Background()
	p := NewWorkouts(brokenSlot{}, discardLogger())

	err := p.Save(ctx, sampleWorkouts(t))
	assert.ErrorIs(t, err, errBroken)
	assert.Empty(t, p.Load(ctx))
}

func TestEncodeLayout(t *testing.T) {
	data, err := Encode(sampleWorkouts(t)[:1])
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"id": "run-1",
		"kind": "running",
		"coordinates": [39, -12],
		"distanceKm": 5.2,
		"durationMin": 24,
		"createdAt": "2026-04-12T06:45:00Z",
		"description": "`+models.Describe(models.KindRunning, time.Date(2026, 4, 12, 6, 45, 0, 0, time.UTC))+`",
		"clickCount": 2,
		"cadenceSpm": 178,
		"paceMinPerKm": `+formatFloat(24/5.2)+`
	}]`, string(data))
}

// TestDecodeLegacyLayout loads records in the shape the browser version kept
// in localStorage.
func TestDecodeLegacyLayout(t *testing.T) {
	data := []byte(`[
		{"date":"2024-03-04T09:30:00.000Z","id":"1709544600000","clicks":3,"coords":[39.1,-9.2],
		 "distance":5,"duration":25,"type":"running","cadence":170,"pace":99,"description":"stale"},
		{"date":"2024-03-05T18:00:00.000Z","id":"1709661600000","clicks":0,"coords":[38.9,-9.0],
		 "distance":30,"duration":60,"type":"cycling","elevationGain":-12,"speed":1}
	]`)

	ws, skipped, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, ws, 2)

	run := ws[0]
	assert.Equal(t, "1709544600000", run.ID)
	assert.Equal(t, models.KindRunning, run.Kind)
	assert.Equal(t, models.Coordinates{Lat: 39.1, Lng: -9.2}, run.Coords)
	assert.True(t, run.CreatedAt.Equal(time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, 3, run.Clicks)
	require.NotNil(t, run.Running)
	assert.Equal(t, 5.0, run.Running.PaceMinPerKm)
	assert.Equal(t, 170.0, run.Running.CadenceSPM)
	assert.Equal(t, models.Describe(models.KindRunning, run.CreatedAt), run.Description)

	ride := ws[1]
	require.NotNil(t, ride.Cycling)
	assert.Equal(t, 30.0, ride.Cycling.SpeedKmPerH)
	assert.Equal(t, -12.0, ride.Cycling.ElevationGainM)
}

func TestDecodeEpochMillis(t *testing.T) {
	created := time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)
	data := []byte(`[
		{"id":"a","kind":"running","coordinates":[1,2],"distanceKm":4,"durationMin":20,"cadenceSpm":160,"createdAt":` +
		formatInt(created.UnixMilli()) + `},
		{"id":"b","kind":"cycling","coordinates":[1,2],"distanceKm":4,"durationMin":20,"createdAt":"` +
		formatInt(created.UnixMilli()) + `"}
	]`)

	ws, skipped, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, ws, 2)
	for _, w := range ws {
		assert.True(t, w.CreatedAt.Equal(created), "%s createdAt = %v", w.ID, w.CreatedAt)
	}
}

// TestDecodeSkipsBadRecords verifies unknown kinds and invalid values are
// dropped individually while the rest of the list loads.
func TestDecodeSkipsBadRecords(t *testing.T) {
	data := []byte(`[
		{"id":"swim","kind":"swimming","coordinates":[1,2],"distanceKm":1,"durationMin":30,"createdAt":"2026-01-01T00:00:00Z"},
		{"id":"ok","kind":"cycling","coordinates":[1,2],"distanceKm":10,"durationMin":30,"createdAt":"2026-01-01T00:00:00Z"},
		{"id":"neg","kind":"running","coordinates":[1,2],"distanceKm":-3,"durationMin":30,"cadenceSpm":150,"createdAt":"2026-01-01T00:00:00Z"},
		{"id":"nowhere","kind":"running","distanceKm":3,"durationMin":30,"cadenceSpm":150,"createdAt":"2026-01-01T00:00:00Z"},
		"not an object"
	]`)

	ws, skipped, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "ok", ws[0].ID)

	require.Len(t, skipped, 4)
	assert.Equal(t, 0, skipped[0].Index)
	assert.ErrorIs(t, skipped[0].Err, ErrUnknownKind)
	assert.ErrorIs(t, skipped[1].Err, models.ErrValidation)
	assert.Equal(t, 4, skipped[3].Index)
}

func TestDecodeAssignsMissingID(t *testing.T) {
	data := []byte(`[{"kind":"cycling","coordinates":[1,2],"distanceKm":10,"durationMin":30,"createdAt":"2026-01-01T00:00:00Z"}]`)

	ws, _, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.NotEmpty(t, ws[0].ID)
}

// TestDecodeReissuesDuplicateIDs verifies colliding legacy ids are kept
// apart: the first record keeps its id, the repeat gets a new one.
func TestDecodeReissuesDuplicateIDs(t *testing.T) {
	data := []byte(`[
		{"id":"1709544600","type":"running","coords":[1,2],"distance":5,"duration":25,"cadence":170,"date":"2024-03-04T09:30:00Z"},
		{"id":"1709544600","type":"cycling","coords":[3,4],"distance":20,"duration":60,"elevationGain":50,"date":"2024-03-04T09:30:00Z"}
	]`)

	ws, skipped, err := Decode(data)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, ws, 2)
	assert.Equal(t, "1709544600", ws[0].ID)
	assert.NotEqual(t, ws[0].ID, ws[1].ID)
	assert.NotEmpty(t, ws[1].ID)
}

// TestWorkoutsReadStrict verifies Read reports what Load swallows.
func TestWorkoutsReadStrict(t *testing.T) {
	ctx := context.Background()

	ws, skipped, err := NewWorkouts(NewMemorySlot(), discardLogger()).Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, ws)
	assert.Empty(t, skipped)

	slot := NewMemorySlot()
	require.NoError(t, slot.Put(ctx, WorkoutsKey, []byte(`[{"id":"keep-me"},]`)))
	_, _, err = NewWorkouts(slot, discardLogger()).Read(ctx)
	assert.Error(t, err)

	_, _, err = NewWorkouts(brokenSlot{}, discardLogger()).Read(ctx)
	assert.ErrorIs(t, err, errBroken)
}

func TestDecodeEmpty(t *testing.T) {
	for _, in := range []string{"", "  ", "null", "[]"} {
		ws, skipped, err := Decode([]byte(in))
		assert.NoError(t, err, in)
		assert.Empty(t, ws, in)
		assert.Empty(t, skipped, in)
	}

	_, _, err := Decode([]byte(`{"workouts":[]}`))
	assert.Error(t, err)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }
