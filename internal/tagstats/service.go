package tagstats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/solvetrack/tagstat-engine/internal/cfapi"
	"github.com/solvetrack/tagstat-engine/internal/config"
	"github.com/solvetrack/tagstat-engine/internal/models"
	"github.com/solvetrack/tagstat-engine/internal/snapshot"
	"github.com/solvetrack/tagstat-engine/internal/stats"
)

// ErrHandleRequired indicates an empty handle in a stats request
var ErrHandleRequired = errors.New("handle is required")

// Fetcher loads the two raw source record sets for a handle
type Fetcher interface {
	FetchUserData(ctx context.Context, handle string) (*cfapi.UserData, error)
}

// RefreshEvent describes one completed recomputation, published to event
// stream subscribers.
type RefreshEvent struct {
	Type        string    `json:"type"`
	Handle      string    `json:"handle"`
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	TagCount    int       `json:"tagCount"`
	Cached      bool      `json:"cached"`
}

// EventSink receives refresh events. May be nil on the service.
type EventSink interface {
	PublishRefresh(event RefreshEvent)
}

// Result is one served aggregate plus provenance
type Result struct {
	Aggregate *stats.Aggregate
	Cached    bool
	RunID     string // empty when served from cache
}

// Service orchestrates the stats pipeline: snapshot cache lookup, source
// fetch, aggregation, snapshot write-back. Concurrent requests for the same
// handle are serialized with a per-handle lock so two refreshes never race
// to write the cache.
type Service struct {
	fetcher Fetcher
	cache   *snapshot.Cache
	scoring config.ScoringConfig
	events  EventSink
	now     func() time.Time

	mu          sync.Mutex
	handleLocks map[string]*sync.Mutex

	trackedMu sync.Mutex
	tracked   map[string]time.Time // handle -> last requested
}

// NewService creates a new stats service
func NewService(fetcher Fetcher, cache *snapshot.Cache, scoring config.ScoringConfig, events EventSink) *Service {
	return &Service{
		fetcher:     fetcher,
		cache:       cache,
		scoring:     scoring,
		events:      events,
		now:         time.Now,
		handleLocks: make(map[string]*sync.Mutex),
		tracked:     make(map[string]time.Time),
	}
}

// Stats returns the aggregate for a handle, serving the cached snapshot when
// it is fresh and recomputing from source otherwise. force bypasses the
// cache read; the cached snapshot is still replaced on success.
func (s *Service) Stats(ctx context.Context, handle string, force bool) (*Result, error) {
	if handle == "" {
		return nil, ErrHandleRequired
	}

	lock := s.lockFor(handle)
	lock.Lock()
	defer lock.Unlock()

	s.touch(handle)
	now := s.now()

	if !force {
		if snap, ok := s.cache.Get(ctx, handle, now); ok {
			slog.Debug("serving cached snapshot",
				"handle", handle,
				"age", snap.Age(now),
			)
			return &Result{
				Aggregate: snapshot.Rehydrate(snap),
				Cached:    true,
			}, nil
		}
	}

	return s.recompute(ctx, handle, now)
}

// Intersections returns difficulty buckets over the intersection of the
// given tags' problem sets for a handle. Derived from the cached snapshot
// when possible; unknown tags yield an empty bucket map, not an error.
func (s *Service) Intersections(ctx context.Context, handle string, tags []string) (map[int]models.DifficultyBucket, error) {
	result, err := s.Stats(ctx, handle, false)
	if err != nil {
		return nil, err
	}
	return result.Aggregate.Intersect(tags), nil
}

// recompute runs the full pipeline. Caller holds the handle lock.
func (s *Service) recompute(ctx context.Context, handle string, now time.Time) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()

	data, err := s.fetcher.FetchUserData(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("fetch failed for %q: %w", handle, err)
	}

	agg := stats.Run(s.scoring, handle, data, now)

	snap := snapshot.Build(agg, s.cache.TTL())
	s.cache.Put(ctx, snap)

	slog.Info("snapshot recomputed",
		"handle", handle,
		"run_id", runID,
		"submissions", agg.Source.UserStatusCount,
		"problems", agg.Source.ProblemsetCount,
		"tags", len(agg.Tags),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if s.events != nil {
		s.events.PublishRefresh(RefreshEvent{
			Type:        "snapshot_refreshed",
			Handle:      handle,
			RunID:       runID,
			GeneratedAt: agg.GeneratedAt,
			TagCount:    len(agg.Tags),
		})
	}

	return &Result{
		Aggregate: agg,
		RunID:     runID,
	}, nil
}

// RefreshIfStale recomputes the snapshot for a handle when its age exceeds
// TTL minus margin. Used by the background warmer. Returns whether a
// recomputation ran.
func (s *Service) RefreshIfStale(ctx context.Context, handle string, margin time.Duration) (bool, error) {
	lock := s.lockFor(handle)
	lock.Lock()
	defer lock.Unlock()

	now := s.now()
	if snap, ok := s.cache.Get(ctx, handle, now); ok {
		if snap.Age(now) <= s.cache.TTL()-margin {
			return false, nil
		}
	}

	if _, err := s.recompute(ctx, handle, now); err != nil {
		return false, err
	}
	return true, nil
}

// TrackedHandles returns handles requested within the retention window and
// forgets the rest.
func (s *Service) TrackedHandles(retention time.Duration) []string {
	s.trackedMu.Lock()
	defer s.trackedMu.Unlock()

	cutoff := s.now().Add(-retention)
	handles := make([]string, 0, len(s.tracked))
	for handle, lastSeen := range s.tracked {
		if lastSeen.Before(cutoff) {
			delete(s.tracked, handle)
			continue
		}
		handles = append(handles, handle)
	}
	return handles
}

// SetClock overrides the service clock. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) touch(handle string) {
	s.trackedMu.Lock()
	defer s.trackedMu.Unlock()
	s.tracked[handle] = s.now()
}

func (s *Service) lockFor(handle string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.handleLocks[handle]
	if !ok {
		lock = &sync.Mutex{}
		s.handleLocks[handle] = lock
	}
	return lock
}
