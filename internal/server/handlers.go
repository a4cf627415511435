package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/mapty/internal/models"
	"github.com/claude/mapty/internal/store"
	"github.com/go-chi/chi/v5"
)

// addRequest is the body of POST /api/v1/workouts.
type addRequest struct {
	Kind        string              `json:"kind"`
	Coordinates *models.Coordinates `json:"coordinates"`
	models.Measurements
}

type sortRequest struct {
	Field string `json:"field"`
}

// mutationResponse is returned by every mutating route, with the list as it
// stands afterwards. Warning is set when the change was applied but could
// not be saved.
type mutationResponse struct {
	Workout  *models.Workout  `json:"workout,omitempty"`
	Workouts []models.Workout `json:"workouts"`
	Warning  string           `json:"warning,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "workouts": s.store.Len()})
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	all := s.store.All()
	if kind := r.URL.Query().Get("kind"); kind != "" {
		k, err := models.ParseKind(kind)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		filtered := all[:0]
		for _, wo := range all {
			if wo.Kind == k {
				filtered = append(filtered, wo)
			}
		}
		all = filtered
	}
	writeJSON(w, http.StatusOK, nonNil(all))
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	wo, ok := s.store.Find(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": store.ErrNotFound.Error()})
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

func (s *Server) handleAddWorkout(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	kind, err := models.ParseKind(req.Kind)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Coordinates == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "coordinates are required"})
		return
	}

	wo, err := s.store.Add(r.Context(), models.Input{
		Kind:         kind,
		Coords:       *req.Coordinates,
		Measurements: req.Measurements,
	})
	if !s.mutationOK(w, err) {
		return
	}
	s.writeMutation(w, http.StatusCreated, &wo, err)
}

func (s *Server) handleEditWorkout(w http.ResponseWriter, r *http.Request) {
	var m models.Measurements
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	wo, err := s.store.Edit(r.Context(), chi.URLParam(r, "id"), m)
	if !s.mutationOK(w, err) {
		return
	}
	s.writeMutation(w, http.StatusOK, &wo, err)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	err := s.store.Remove(r.Context(), chi.URLParam(r, "id"))
	if !s.mutationOK(w, err) {
		return
	}
	s.writeMutation(w, http.StatusOK, nil, err)
}

func (s *Server) handleClearWorkouts(w http.ResponseWriter, r *http.Request) {
	err := s.store.Clear(r.Context())
	if !s.mutationOK(w, err) {
		return
	}
	s.writeMutation(w, http.StatusOK, nil, err)
}

func (s *Server) handleSortWorkouts(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Field == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "field is required"})
		return
	}

	err := s.store.Sort(r.Context(), req.Field)
	if !s.mutationOK(w, err) {
		return
	}
	s.writeMutation(w, http.StatusOK, nil, err)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	wo, err := s.store.Click(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	b, ok := s.store.Bounds()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// mutationOK writes the error response for err and reports false, unless err
// is nil or only a save failure.
func (s *Server) mutationOK(w http.ResponseWriter, err error) bool {
	if err == nil || errors.Is(err, store.ErrSave) {
		return true
	}
	s.writeError(w, err)
	return false
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, store.ErrUnknownField):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// warning returns the text for a save failure, or "".
func warning(err error) string {
	if errors.Is(err, store.ErrSave) {
		return err.Error() + "; changes will be lost on restart"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeMutation(w http.ResponseWriter, status int, wo *models.Workout, err error) {
	writeJSON(w, status, mutationResponse{Workout: wo, Workouts: nonNil(s.store.All()), Warning: warning(err)})
}

// nonNil makes an empty list encode as [] rather than null.
func nonNil(ws []models.Workout) []models.Workout {
	if ws == nil {
		return []models.Workout{}
	}
	return ws
}
