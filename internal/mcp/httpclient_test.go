package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/mapty/internal/models"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by "METHOD path". Verifies the HTTP client sends correct methods and paths.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.Method+" "+r.URL.Path]
		if !ok {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

func testWorkout(t *testing.T) models.Workout {
	t.Helper()
	w, err := models.Restore("w-1", time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC), models.Input{
		Kind:         models.KindRunning,
		Coords:       models.Coordinates{Lat: 39, Lng: -12},
		Measurements: models.Measurements{DistanceKm: 5, DurationMin: 25, CadenceSPM: 170},
	})
	if err != nil {
		t.Fatal(err)
	}
	return w
}

// TestListWorkouts verifies the client decodes the workout list, including
// coordinate pairs and running stats.
func TestListWorkouts(t *testing.T) {
	want := testWorkout(t)
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusOK, []models.Workout{want})
		},
	})
	defer ts.Close()

	got, err := NewHTTPClient(ts.URL, "").ListWorkouts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d workouts, want 1", len(got))
	}
	if got[0].ID != want.ID || got[0].Coords != want.Coords {
		t.Errorf("workout = %+v, want %+v", got[0], want)
	}
	if got[0].Running == nil || got[0].Running.PaceMinPerKm != 5 {
		t.Errorf("running stats = %+v, want pace 5", got[0].Running)
	}
}

// TestAddWorkoutSendsKeyAndBody verifies the API key header and the request
// body shape expected by POST /api/v1/workouts.
func TestAddWorkoutSendsKeyAndBody(t *testing.T) {
	created := testWorkout(t)
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "k" {
				t.Errorf("X-API-Key = %q, want k", got)
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["kind"] != "running" {
				t.Errorf("kind = %v, want running", body["kind"])
			}
			if coords, ok := body["coordinates"].([]any); !ok || len(coords) != 2 {
				t.Errorf("coordinates = %v, want [lat, lng]", body["coordinates"])
			}
			if body["cadenceSpm"] != 170.0 {
				t.Errorf("cadenceSpm = %v, want 170", body["cadenceSpm"])
			}
			writeTestJSON(t, w, http.StatusCreated, Result{Workout: &created, Warning: "workouts not saved: disk full"})
		},
	})
	defer ts.Close()

	res, err := NewHTTPClient(ts.URL+"/", "k").AddWorkout(context.Background(), created.Input())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Workout == nil || res.Workout.ID != created.ID {
		t.Errorf("workout = %+v, want id %q", res.Workout, created.ID)
	}
	if res.Warning == "" {
		t.Error("warning not decoded")
	}
}

// TestErrorResponse verifies API error messages are surfaced.
func TestErrorResponse(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"DELETE /api/v1/workouts/missing": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL, "").DeleteWorkout(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !strings.Contains(err.Error(), "workout not found") || !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status and message", err)
	}
}

func TestSortAndEdit(t *testing.T) {
	w := testWorkout(t)
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/workouts/sort": func(rw http.ResponseWriter, r *http.Request) {
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["field"] != "distance" {
				t.Errorf("field = %q, want distance", body["field"])
			}
			writeTestJSON(t, rw, http.StatusOK, Result{Workouts: []models.Workout{w}})
		},
		"PUT /api/v1/workouts/w-1": func(rw http.ResponseWriter, r *http.Request) {
			var m models.Measurements
			if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
				t.Fatal(err)
			}
			if m.DistanceKm != 8 || m.DurationMin != 40 {
				t.Errorf("measurements = %+v", m)
			}
			writeTestJSON(t, rw, http.StatusOK, Result{Workout: &w})
		},
	})
	defer ts.Close()

	c := NewHTTPClient(ts.URL, "")
	res, err := c.SortWorkouts(context.Background(), "distance")
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	if len(res.Workouts) != 1 {
		t.Errorf("sorted workouts = %d, want 1", len(res.Workouts))
	}
	if _, err := c.EditWorkout(context.Background(), "w-1", models.Measurements{DistanceKm: 8, DurationMin: 40, CadenceSPM: 170}); err != nil {
		t.Fatalf("edit: %v", err)
	}
}

// TestWorkoutBoundsEmpty verifies 204 No Content maps to nil bounds.
func TestWorkoutBoundsEmpty(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/workouts/bounds": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	})
	defer ts.Close()

	b, err := NewHTTPClient(ts.URL, "").WorkoutBounds(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != nil {
		t.Errorf("bounds = %+v, want nil", b)
	}
}
