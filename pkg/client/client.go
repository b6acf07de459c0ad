package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a Go SDK for the tagstat-engine API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new tagstat-engine client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DifficultyBucket mirrors the per-rating outcome counters
type DifficultyBucket struct {
	SolvedContest  int `json:"solvedContest"`
	SolvedPractice int `json:"solvedPractice"`
	FailedContest  int `json:"failedContest"`
	Unsolved       int `json:"unsolved"`
	Total          int `json:"total"`
}

// TagStat is one tag's statistics as returned by the API
type TagStat struct {
	Tag                  string                      `json:"tag"`
	TotalAvailable       int                         `json:"totalAvailable"`
	Solved               int                         `json:"solved"`
	SolvedContest        int                         `json:"solvedContest"`
	SolvedPractice       int                         `json:"solvedPractice"`
	SolvePercent         float64                     `json:"solvePercent"`
	MaxSolved            *int                        `json:"maxSolved"`
	NextTargetDifficulty *int                        `json:"nextTargetDifficulty"`
	MinFailedDifficulty  *int                        `json:"minFailedDifficulty"`
	MaxFailedDifficulty  *int                        `json:"maxFailedDifficulty"`
	FailSpan             *int                        `json:"failSpan"`
	RecommendScore       float64                     `json:"recommendScore"`
	DifficultyBuckets    map[string]DifficultyBucket `json:"difficultyBuckets"`
}

// Stats is the full aggregate response for a handle
type Stats struct {
	Handle      string    `json:"handle"`
	Cached      bool      `json:"cached"`
	RunID       string    `json:"runId,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	Source      struct {
		UserStatusCount int `json:"userStatusCount"`
		ProblemsetCount int `json:"problemsetCount"`
	} `json:"source"`
	TagCount int       `json:"tagCount"`
	Tags     []TagStat `json:"tags"`
}

// TagList is the sorted tag view response
type TagList struct {
	Handle string    `json:"handle"`
	Sort   string    `json:"sort"`
	Cached bool      `json:"cached"`
	Tags   []TagStat `json:"tags"`
}

// Intersections is the multi-tag intersection response
type Intersections struct {
	Handle  string                      `json:"handle"`
	Tags    []string                    `json:"tags"`
	Buckets map[string]DifficultyBucket `json:"buckets"`
}

// GetStats retrieves the aggregate for a handle. force bypasses the cache.
func (c *Client) GetStats(ctx context.Context, handle string, force bool) (*Stats, error) {
	path := fmt.Sprintf("/api/v1/stats/%s", url.PathEscape(handle))
	if force {
		path += "?force=true"
	}

	var stats Stats
	if err := c.getJSON(ctx, path, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Refresh forces a recomputation for a handle
func (c *Client) Refresh(ctx context.Context, handle string) (*Stats, error) {
	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/stats/%s/refresh", url.PathEscape(handle)))
	if err != nil {
		return nil, err
	}

	var stats Stats
	if err := decodeEnvelope(resp, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetTags retrieves the tag list in the given sort order
// (solved, recommend, failspan, coverage, name).
func (c *Client) GetTags(ctx context.Context, handle, sort string) (*TagList, error) {
	path := fmt.Sprintf("/api/v1/stats/%s/tags", url.PathEscape(handle))
	if sort != "" {
		path += "?sort=" + url.QueryEscape(sort)
	}

	var list TagList
	if err := c.getJSON(ctx, path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetIntersections retrieves difficulty buckets over the intersection of the
// given tags' problem sets.
func (c *Client) GetIntersections(ctx context.Context, handle string, tags []string) (*Intersections, error) {
	path := fmt.Sprintf("/api/v1/stats/%s/intersections?tags=%s",
		url.PathEscape(handle), url.QueryEscape(strings.Join(tags, ",")))

	var result Intersections
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health")
	return err
}

// getJSON performs a GET and decodes the response envelope into out
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, "GET", path)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, out)
}

// decodeEnvelope unwraps the {success, data, error} envelope
func decodeEnvelope(body []byte, out interface{}) error {
	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		if result.Error != nil {
			return fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
		}
		return fmt.Errorf("API error: request failed")
	}

	if out != nil {
		if err := json.Unmarshal(result.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}

	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
