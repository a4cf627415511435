package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/mapty/internal/models"
)

// HTTPClient implements DataSource by calling the Mapty REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// is sent as X-API-Key when non-empty.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends a request and returns the body of a 2xx response.
func (c *HTTPClient) do(ctx context.Context, method, path string, in any) ([]byte, int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, 0, fmt.Errorf("httpclient: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("httpclient: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return nil, resp.StatusCode, fmt.Errorf("httpclient: %s %s returned %d: %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return nil, resp.StatusCode, fmt.Errorf("httpclient: %s %s returned %d: %s", method, path, resp.StatusCode, data)
	}

	return data, resp.StatusCode, nil
}

func (c *HTTPClient) mutate(ctx context.Context, method, path string, in any) (*Result, error) {
	body, _, err := c.do(ctx, method, path, in)
	if err != nil {
		return nil, err
	}
	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("httpclient: decode result: %w", err)
	}
	return &res, nil
}

func workoutPath(id string) string {
	return "/api/v1/workouts/" + url.PathEscape(id)
}

func (c *HTTPClient) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	body, _, err := c.do(ctx, http.MethodGet, "/api/v1/workouts", nil)
	if err != nil {
		return nil, err
	}

	var workouts []models.Workout
	if err := json.Unmarshal(body, &workouts); err != nil {
		return nil, fmt.Errorf("httpclient: decode workouts: %w", err)
	}
	return workouts, nil
}

func (c *HTTPClient) AddWorkout(ctx context.Context, in models.Input) (*Result, error) {
	req := struct {
		Kind        models.Kind        `json:"kind"`
		Coordinates models.Coordinates `json:"coordinates"`
		models.Measurements
	}{in.Kind, in.Coords, in.Measurements}
	return c.mutate(ctx, http.MethodPost, "/api/v1/workouts", req)
}

func (c *HTTPClient) EditWorkout(ctx context.Context, id string, m models.Measurements) (*Result, error) {
	return c.mutate(ctx, http.MethodPut, workoutPath(id), m)
}

func (c *HTTPClient) DeleteWorkout(ctx context.Context, id string) (*Result, error) {
	return c.mutate(ctx, http.MethodDelete, workoutPath(id), nil)
}

func (c *HTTPClient) ClearWorkouts(ctx context.Context) (*Result, error) {
	return c.mutate(ctx, http.MethodDelete, "/api/v1/workouts", nil)
}

func (c *HTTPClient) SortWorkouts(ctx context.Context, field string) (*Result, error) {
	return c.mutate(ctx, http.MethodPost, "/api/v1/workouts/sort", map[string]string{"field": field})
}

func (c *HTTPClient) WorkoutBounds(ctx context.Context) (*models.Bounds, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/api/v1/workouts/bounds", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}

	var b models.Bounds
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("httpclient: decode bounds: %w", err)
	}
	return &b, nil
}
