package tagstats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/solvetrack/tagstat-engine/internal/cfapi"
	"github.com/solvetrack/tagstat-engine/internal/config"
	"github.com/solvetrack/tagstat-engine/internal/snapshot"
	"github.com/solvetrack/tagstat-engine/internal/storage"
)

func intp(v int) *int { return &v }

// stubFetcher serves canned source data and counts fetches
type stubFetcher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *stubFetcher) FetchUserData(_ context.Context, handle string) (*cfapi.UserData, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	return &cfapi.UserData{
		Problems: []cfapi.Problem{
			{ContestID: 100, Index: "A", Name: "Sum", Rating: intp(1500), Tags: []string{"dp"}},
			{ContestID: 100, Index: "B", Name: "Graph", Rating: intp(1700), Tags: []string{"dp", "graphs"}},
		},
		Submissions: []cfapi.Submission{
			{ContestID: 100, Problem: cfapi.Problem{ContestID: 100, Index: "A"}, Verdict: "OK"},
			{ContestID: 100, Problem: cfapi.Problem{ContestID: 100, Index: "B"}, Verdict: "WRONG_ANSWER"},
		},
	}, nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingSink captures published refresh events
type recordingSink struct {
	mu     sync.Mutex
	events []RefreshEvent
}

func (s *recordingSink) PublishRefresh(event RefreshEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newTestService(fetcher *stubFetcher, sink EventSink) *Service {
	cache := snapshot.NewCache(storage.NewMemoryStore(), config.CacheConfig{
		TTL:       6 * time.Hour,
		KeyPrefix: "cfTagStats:",
	})
	return NewService(fetcher, cache, config.DefaultScoring(), sink)
}

func TestStatsComputesThenServesFromCache(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := newTestService(fetcher, nil)
	ctx := context.Background()

	first, err := svc.Stats(ctx, "tester", false)
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if first.Cached {
		t.Error("first request must not be served from cache")
	}
	if first.RunID == "" {
		t.Error("fresh computation must carry a run ID")
	}
	if first.Aggregate.Tags["dp"].Solved != 1 {
		t.Errorf("unexpected dp stats: %+v", first.Aggregate.Tags["dp"])
	}

	second, err := svc.Stats(ctx, "tester", false)
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	if !second.Cached {
		t.Error("second request must be served from cache")
	}
	if second.RunID != "" {
		t.Error("cached result must not carry a run ID")
	}
	if fetcher.callCount() != 1 {
		t.Errorf("expected exactly 1 fetch, got %d", fetcher.callCount())
	}

	// Cached replay must expose identical tag numbers
	if got, want := second.Aggregate.Tags["dp"], first.Aggregate.Tags["dp"]; got.Solved != want.Solved ||
		got.TotalAvailable != want.TotalAvailable || got.RecommendScore != want.RecommendScore {
		t.Errorf("cached tag stats diverge: %+v vs %+v", got, want)
	}
}

func TestStatsForceBypassesCache(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := newTestService(fetcher, nil)
	ctx := context.Background()

	if _, err := svc.Stats(ctx, "tester", false); err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	result, err := svc.Stats(ctx, "tester", true)
	if err != nil {
		t.Fatalf("forced request failed: %v", err)
	}
	if result.Cached {
		t.Error("forced request must recompute")
	}
	if fetcher.callCount() != 2 {
		t.Errorf("expected 2 fetches, got %d", fetcher.callCount())
	}
}

func TestStatsEmptyHandle(t *testing.T) {
	svc := newTestService(&stubFetcher{}, nil)

	_, err := svc.Stats(context.Background(), "", false)
	if !errors.Is(err, ErrHandleRequired) {
		t.Errorf("expected ErrHandleRequired, got %v", err)
	}
}

func TestStatsFetchFailureLeavesCacheUntouched(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := newTestService(fetcher, nil)
	ctx := context.Background()

	if _, err := svc.Stats(ctx, "tester", false); err != nil {
		t.Fatalf("seed request failed: %v", err)
	}

	fetcher.err = fmt.Errorf("%w: upstream 503", cfapi.ErrSourceUnavailable)
	if _, err := svc.Stats(ctx, "tester", true); err == nil {
		t.Fatal("expected forced refresh to fail")
	} else if !errors.Is(err, cfapi.ErrSourceUnavailable) {
		t.Errorf("expected source error to be preserved, got %v", err)
	}

	// The previous snapshot must still be served
	fetcher.err = errors.New("still down")
	result, err := svc.Stats(ctx, "tester", false)
	if err != nil {
		t.Fatalf("cached read after failed refresh errored: %v", err)
	}
	if !result.Cached {
		t.Error("expected the earlier snapshot to survive the failed refresh")
	}
}

func TestStatsPublishesRefreshEvents(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestService(&stubFetcher{}, sink)
	ctx := context.Background()

	if _, err := svc.Stats(ctx, "tester", false); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := svc.Stats(ctx, "tester", false); err != nil {
		t.Fatalf("cached request failed: %v", err)
	}

	if sink.count() != 1 {
		t.Fatalf("expected 1 event (cache hits publish nothing), got %d", sink.count())
	}

	event := sink.events[0]
	if event.Type != "snapshot_refreshed" || event.Handle != "tester" || event.RunID == "" {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.TagCount != 2 {
		t.Errorf("expected tagCount 2, got %d", event.TagCount)
	}
}

func TestIntersectionsFromCache(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := newTestService(fetcher, nil)
	ctx := context.Background()

	buckets, err := svc.Intersections(ctx, "tester", []string{"dp", "graphs"})
	if err != nil {
		t.Fatalf("intersections failed: %v", err)
	}
	if b := buckets[1700]; b.FailedContest != 1 || b.Total != 1 {
		t.Errorf("unexpected intersection bucket: %+v", b)
	}

	// Second call must come from the cached snapshot
	if _, err := svc.Intersections(ctx, "tester", []string{"dp", "unknown"}); err != nil {
		t.Fatalf("intersections failed: %v", err)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("expected 1 fetch, got %d", fetcher.callCount())
	}
}

func TestRefreshIfStale(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := newTestService(fetcher, nil)
	ctx := context.Background()

	if _, err := svc.Stats(ctx, "tester", false); err != nil {
		t.Fatalf("seed request failed: %v", err)
	}

	// Fresh snapshot: nothing to do
	refreshed, err := svc.RefreshIfStale(ctx, "tester", 30*time.Minute)
	if err != nil {
		t.Fatalf("refresh check failed: %v", err)
	}
	if refreshed {
		t.Error("fresh snapshot must not be recomputed")
	}

	// Move the clock close to expiry
	svc.now = func() time.Time { return time.Now().Add(6 * time.Hour) }

	refreshed, err = svc.RefreshIfStale(ctx, "tester", 30*time.Minute)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if !refreshed {
		t.Error("stale snapshot must be recomputed")
	}
	if fetcher.callCount() != 2 {
		t.Errorf("expected 2 fetches, got %d", fetcher.callCount())
	}
}

func TestTrackedHandlesRetention(t *testing.T) {
	svc := newTestService(&stubFetcher{}, nil)
	ctx := context.Background()

	if _, err := svc.Stats(ctx, "alice", false); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := svc.Stats(ctx, "bob", false); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	handles := svc.TrackedHandles(time.Hour)
	if len(handles) != 2 {
		t.Fatalf("expected 2 tracked handles, got %v", handles)
	}

	// After the retention window both are forgotten
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if handles := svc.TrackedHandles(time.Hour); len(handles) != 0 {
		t.Errorf("expected handles to be forgotten, got %v", handles)
	}
}
