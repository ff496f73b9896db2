// Package backend talks to the logistics backend that owns the network,
// package tracking, path search and node positions.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ritzau/hubmap/pkg/logging"
	"github.com/ritzau/hubmap/pkg/model"
	"github.com/ritzau/hubmap/pkg/snapshot"
)

var log = logging.New("backend")

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("not found")

// Client is everything the map needs from the backend.
type Client interface {
	snapshot.Source

	// Tracking looks up a package. An unknown id is reported through
	// TrackingSnapshot.Found, not as an error.
	Tracking(ctx context.Context, id int) (model.TrackingSnapshot, error)

	// Path asks the backend for the shortest path between two hubs.
	Path(ctx context.Context, start, end string) (model.PathSnapshot, error)

	// CommitPosition stores a dragged node's new world position.
	CommitPosition(ctx context.Context, commit model.PositionCommit) error
}

// HTTPClient implements Client against the backend's JSON API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the API rooted at baseURL (e.g. http://host:8080/api).
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Name() string {
	return "backend:" + c.baseURL
}

func (c *HTTPClient) Network(ctx context.Context) (model.NetworkSnapshot, error) {
	var snap model.NetworkSnapshot
	if err := c.get(ctx, "/map", nil, &snap); err != nil {
		return model.NetworkSnapshot{}, fmt.Errorf("network: %w", err)
	}
	return snap, nil
}

func (c *HTTPClient) Tracking(ctx context.Context, id int) (model.TrackingSnapshot, error) {
	var snap model.TrackingSnapshot
	err := c.get(ctx, "/track_package", url.Values{"id": {strconv.Itoa(id)}}, &snap)
	if errors.Is(err, ErrNotFound) {
		return model.TrackingSnapshot{Found: false, ID: id}, nil
	}
	if err != nil {
		return model.TrackingSnapshot{}, fmt.Errorf("tracking %d: %w", id, err)
	}
	return snap, nil
}

func (c *HTTPClient) Path(ctx context.Context, start, end string) (model.PathSnapshot, error) {
	var snap model.PathSnapshot
	err := c.get(ctx, "/path", url.Values{"start": {start}, "end": {end}}, &snap)
	if errors.Is(err, ErrNotFound) {
		return model.PathSnapshot{Found: false}, nil
	}
	if err != nil {
		return model.PathSnapshot{}, fmt.Errorf("path %s-%s: %w", start, end, err)
	}
	return snap, nil
}

func (c *HTTPClient) CommitPosition(ctx context.Context, commit model.PositionCommit) error {
	body, err := json.Marshal(commit)
	if err != nil {
		return fmt.Errorf("failed to marshal commit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update_node", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("update node %s: %w", commit.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()
	return nil
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, v any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// do sends req and turns non-2xx answers into errors
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL.Path, err)
	}
	log.Debug("backend request", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "durationMs", time.Since(start).Milliseconds())

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", req.URL.Path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, req.URL.Path, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
