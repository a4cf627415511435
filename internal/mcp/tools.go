package mcp

import (
	"context"
	"strings"

	"github.com/claude/mapty/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// sortFields are the names accepted by sort_workouts.
var sortFields = []string{"date", "distance", "duration", "pace", "cadence", "speed", "elevation"}

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List logged workouts in their current order. Each workout has id, kind, coordinates, distance (km), duration (min), creation time, description and either running stats (cadence, pace) or cycling stats (elevation gain, speed)."),
	mcp.WithString("kind", mcp.Description("Only return workouts of this kind"), mcp.Enum("running", "cycling")),
)

var toolAddWorkout = mcp.NewTool("add_workout",
	mcp.WithDescription("Log a new workout at a location. Running needs a positive cadence; cycling takes an elevation gain that may be zero or negative. Pace or speed is computed."),
	mcp.WithString("kind", mcp.Required(), mcp.Description("Workout kind"), mcp.Enum("running", "cycling")),
	mcp.WithNumber("lat", mcp.Required(), mcp.Description("Latitude in decimal degrees")),
	mcp.WithNumber("lng", mcp.Required(), mcp.Description("Longitude in decimal degrees")),
	mcp.WithNumber("distance_km", mcp.Required(), mcp.Description("Distance in kilometres, > 0")),
	mcp.WithNumber("duration_min", mcp.Required(), mcp.Description("Duration in minutes, > 0")),
	mcp.WithNumber("cadence_spm", mcp.Description("Running cadence in steps per minute, > 0")),
	mcp.WithNumber("elevation_gain_m", mcp.Description("Cycling elevation gain in metres")),
)

var toolEditWorkout = mcp.NewTool("edit_workout",
	mcp.WithDescription("Replace a workout's distance, duration and kind-specific value. Location, kind, id and creation date are kept; the list is re-sorted by date afterwards."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout id")),
	mcp.WithNumber("distance_km", mcp.Required(), mcp.Description("Distance in kilometres, > 0")),
	mcp.WithNumber("duration_min", mcp.Required(), mcp.Description("Duration in minutes, > 0")),
	mcp.WithNumber("cadence_spm", mcp.Description("Running cadence in steps per minute, > 0")),
	mcp.WithNumber("elevation_gain_m", mcp.Description("Cycling elevation gain in metres")),
)

var toolDeleteWorkout = mcp.NewTool("delete_workout",
	mcp.WithDescription("Delete one workout by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout id")),
)

var toolClearWorkouts = mcp.NewTool("clear_workouts",
	mcp.WithDescription("Delete every workout. This cannot be undone."),
)

var toolSortWorkouts = mcp.NewTool("sort_workouts",
	mcp.WithDescription("Sort the workout list ascending by a field and keep that order. pace and cadence only work when every workout is a run; speed and elevation only when every workout is a ride."),
	mcp.WithString("field", mcp.Required(), mcp.Description("Sort field"), mcp.Enum(sortFields...)),
)

var toolWorkoutBounds = mcp.NewTool("workout_bounds",
	mcp.WithDescription("Return the south-west and north-east corners of the box enclosing every workout location, or null when there are no workouts."),
)

// --- Tool handlers ---

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workouts, err := h.ds.ListWorkouts(ctx)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if kind := req.GetString("kind", ""); kind != "" {
		k, err := models.ParseKind(kind)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filtered := make([]models.Workout, 0, len(workouts))
		for _, w := range workouts {
			if w.Kind == k {
				filtered = append(filtered, w)
			}
		}
		workouts = filtered
	}

	return jsonResult(nonNil(workouts))
}

func (h *handlers) addWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kindName, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind parameter is required"), nil
	}
	kind, err := models.ParseKind(kindName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lat, err := req.RequireFloat("lat")
	if err != nil {
		return mcp.NewToolResultError("lat parameter is required"), nil
	}
	lng, err := req.RequireFloat("lng")
	if err != nil {
		return mcp.NewToolResultError("lng parameter is required"), nil
	}
	m, errResult := measurements(req)
	if errResult != nil {
		return errResult, nil
	}

	res, err := h.ds.AddWorkout(ctx, models.Input{
		Kind:         kind,
		Coords:       models.Coordinates{Lat: lat, Lng: lng},
		Measurements: m,
	})
	return h.mutation("add_workout", res, err)
}

func (h *handlers) editWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	m, errResult := measurements(req)
	if errResult != nil {
		return errResult, nil
	}

	res, err := h.ds.EditWorkout(ctx, id, m)
	return h.mutation("edit_workout", res, err)
}

func (h *handlers) deleteWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	res, err := h.ds.DeleteWorkout(ctx, id)
	return h.mutation("delete_workout", res, err)
}

func (h *handlers) clearWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.ds.ClearWorkouts(ctx)
	return h.mutation("clear_workouts", res, err)
}

func (h *handlers) sortWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError("field parameter is required"), nil
	}
	res, err := h.ds.SortWorkouts(ctx, strings.TrimSpace(field))
	return h.mutation("sort_workouts", res, err)
}

func (h *handlers) workoutBounds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := h.ds.WorkoutBounds(ctx)
	if err != nil {
		h.log.Error("mcp workout_bounds", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(b)
}

// measurements reads the numeric arguments shared by add and edit.
func measurements(req mcp.CallToolRequest) (models.Measurements, *mcp.CallToolResult) {
	distance, err := req.RequireFloat("distance_km")
	if err != nil {
		return models.Measurements{}, mcp.NewToolResultError("distance_km parameter is required")
	}
	duration, err := req.RequireFloat("duration_min")
	if err != nil {
		return models.Measurements{}, mcp.NewToolResultError("duration_min parameter is required")
	}
	return models.Measurements{
		DistanceKm:     distance,
		DurationMin:    duration,
		CadenceSPM:     req.GetFloat("cadence_spm", 0),
		ElevationGainM: req.GetFloat("elevation_gain_m", 0),
	}, nil
}

// mutation reports a rejected change as a tool error and otherwise returns
// the result, including any save warning.
func (h *handlers) mutation(tool string, res *Result, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		h.log.Warn("mcp "+tool+" rejected", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.Warning != "" {
		h.log.Warn("mcp "+tool+" not saved", "warning", res.Warning)
	}
	return jsonResult(res)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func nonNil(ws []models.Workout) []models.Workout {
	if ws == nil {
		return []models.Workout{}
	}
	return ws
}
