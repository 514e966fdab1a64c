// Package gateway is the persistence boundary: it pushes and pulls timeline
// documents over the backend HTTP contract. The engine treats Replace as a
// whole-document, last-write-wins operation; single-item create and delete
// are the only partial-update affordances.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/framecut/framecut/internal/timeline"
)

// Client is the persistence operations the editor depends on.
type Client interface {
	Load(ctx context.Context, projectID string) (*timeline.Timeline, error)
	Replace(ctx context.Context, t *timeline.Timeline) (*timeline.Timeline, error)
	CreateText(ctx context.Context, trackID string, item timeline.Item) (timeline.Item, error)
	CreateAsset(ctx context.Context, trackID string, placement AssetPlacement) (timeline.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
}

// AssetPlacement describes where and how an existing asset lands on a track.
type AssetPlacement struct {
	AssetID     string  `json:"assetId"`
	SourceStart float64 `json:"sourceStartTime"`
	SourceEnd   float64 `json:"sourceEndTime"`
	Speed       float64 `json:"speed"`
	Volume      float64 `json:"volume"`
	Opacity     float64 `json:"opacity"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	ScaleX      float64 `json:"scaleX"`
	ScaleY      float64 `json:"scaleY"`
	Rotation    float64 `json:"rotation"`
	FadeIn      float64 `json:"fadeIn"`
	FadeOut     float64 `json:"fadeOut"`
}

// APIError is a non-2xx response from the timeline service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("timeline service: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and false for client
// errors (4xx), which are considered permanent.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// HTTPClient talks to a timeline service over HTTP.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type successResponse struct {
	Success bool `json:"success"`
}

type replaceResponse struct {
	Success  bool               `json:"success"`
	Timeline *timeline.Timeline `json:"timeline,omitempty"`
}

type createItemResponse struct {
	Success bool `json:"success"`
	Data    struct {
		TimelineItem timeline.Item `json:"timelineItem"`
	} `json:"data"`
}

// Load fetches the timeline document for a project.
func (c *HTTPClient) Load(ctx context.Context, projectID string) (*timeline.Timeline, error) {
	var t timeline.Timeline
	if err := c.do(ctx, http.MethodGet, "/timeline/project/"+projectID, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Replace pushes the whole document as the new canonical state. The call is
// idempotent: repeating it with the same document stores the same result.
func (c *HTTPClient) Replace(ctx context.Context, t *timeline.Timeline) (*timeline.Timeline, error) {
	var resp replaceResponse
	if err := c.do(ctx, http.MethodPut, "/timeline/"+t.ID, t, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("timeline service rejected replace of %s", t.ID)
	}
	if resp.Timeline != nil {
		return resp.Timeline, nil
	}
	return t, nil
}

// CreateText creates a single text item on a track. The server assigns the
// canonical id; the returned item replaces the caller's provisional copy.
func (c *HTTPClient) CreateText(ctx context.Context, trackID string, item timeline.Item) (timeline.Item, error) {
	var resp createItemResponse
	if err := c.do(ctx, http.MethodPost, "/track/"+trackID+"/text", item, &resp); err != nil {
		return timeline.Item{}, err
	}
	return resp.Data.TimelineItem, nil
}

// CreateAsset places an existing asset on a track as a video or audio item.
func (c *HTTPClient) CreateAsset(ctx context.Context, trackID string, placement AssetPlacement) (timeline.Item, error) {
	var resp createItemResponse
	if err := c.do(ctx, http.MethodPost, "/track/"+trackID+"/asset", placement, &resp); err != nil {
		return timeline.Item{}, err
	}
	return resp.Data.TimelineItem, nil
}

// DeleteItem removes a single item server-side. The editor applies the
// matching local removal only after this succeeds.
func (c *HTTPClient) DeleteItem(ctx context.Context, itemID string) error {
	var resp successResponse
	if err := c.do(ctx, http.MethodDelete, "/track/items/"+itemID, nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("timeline service rejected delete of item %s", itemID)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.logger != nil {
			c.logger.Warn("timeline service call failed",
				"method", method,
				"path", path,
				"status", resp.StatusCode,
			)
		}
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
