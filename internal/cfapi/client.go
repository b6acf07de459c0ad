package cfapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/solvetrack/tagstat-engine/internal/config"
)

// ErrSourceUnavailable indicates that one of the two source record sets could
// not be loaded. No partial aggregation is ever attempted.
var ErrSourceUnavailable = errors.New("could not load source data")

// Problem is the Codeforces API wire shape of a problem reference
type Problem struct {
	ContestID      int      `json:"contestId,omitempty"`
	ProblemsetName string   `json:"problemsetName,omitempty"`
	Index          string   `json:"index"`
	Name           string   `json:"name,omitempty"`
	Rating         *int     `json:"rating,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

// Submission is the Codeforces API wire shape of one submission
type Submission struct {
	ID        int64   `json:"id"`
	ContestID int     `json:"contestId,omitempty"`
	Problem   Problem `json:"problem"`
	Verdict   string  `json:"verdict,omitempty"`
}

// UserData bundles the two source record sets required before aggregation
type UserData struct {
	Submissions []Submission
	Problems    []Problem
}

// envelope is the common Codeforces API response wrapper
type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// Client talks to the Codeforces REST API
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a new Codeforces API client
func NewClient(cfg config.CodeforcesConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// UserStatus fetches the full submission history of a handle
func (c *Client) UserStatus(ctx context.Context, handle string) ([]Submission, error) {
	raw, err := c.doRequest(ctx, "/user.status?handle="+url.QueryEscape(handle))
	if err != nil {
		return nil, err
	}

	var submissions []Submission
	if err := json.Unmarshal(raw, &submissions); err != nil {
		return nil, fmt.Errorf("failed to decode user.status result: %w", err)
	}

	return submissions, nil
}

// ProblemsetProblems fetches the full problem catalog
func (c *Client) ProblemsetProblems(ctx context.Context) ([]Problem, error) {
	raw, err := c.doRequest(ctx, "/problemset.problems")
	if err != nil {
		return nil, err
	}

	var result struct {
		Problems []Problem `json:"problems"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode problemset.problems result: %w", err)
	}

	return result.Problems, nil
}

// FetchUserData issues both source requests concurrently and joins on both
// results. If either request fails the whole fetch fails with a single
// error; no partial data is returned.
func (c *Client) FetchUserData(ctx context.Context, handle string) (*UserData, error) {
	data := &UserData{}
	errCh := make(chan error, 2)

	go func() {
		subs, err := c.UserStatus(ctx, handle)
		if err == nil {
			data.Submissions = subs
		}
		errCh <- err
	}()

	go func() {
		problems, err := c.ProblemsetProblems(ctx)
		if err == nil {
			data.Problems = problems
		}
		errCh <- err
	}()

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
	}

	slog.Debug("fetched source data",
		"handle", handle,
		"submissions", len(data.Submissions),
		"problems", len(data.Problems),
	)

	return data, nil
}

// doRequest performs a GET against the API and unwraps the envelope
func (c *Client) doRequest(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, path)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode API envelope: %w", err)
	}

	if env.Status != "OK" {
		return nil, fmt.Errorf("API status %q: %s", env.Status, env.Comment)
	}

	return env.Result, nil
}
