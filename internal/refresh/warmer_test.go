package refresh

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/solvetrack/tagstat-engine/internal/cfapi"
	"github.com/solvetrack/tagstat-engine/internal/config"
	"github.com/solvetrack/tagstat-engine/internal/snapshot"
	"github.com/solvetrack/tagstat-engine/internal/storage"
	"github.com/solvetrack/tagstat-engine/internal/tagstats"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *countingFetcher) FetchUserData(_ context.Context, handle string) (*cfapi.UserData, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	rating := 1500
	return &cfapi.UserData{
		Problems: []cfapi.Problem{
			{ContestID: 100, Index: "A", Name: "Sum", Rating: &rating, Tags: []string{"dp"}},
		},
		Submissions: []cfapi.Submission{
			{ContestID: 100, Problem: cfapi.Problem{ContestID: 100, Index: "A"}, Verdict: "OK"},
		},
	}, nil
}

func (f *countingFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestWarmRefreshesOnlyStaleSnapshots(t *testing.T) {
	fetcher := &countingFetcher{}
	cache := snapshot.NewCache(storage.NewMemoryStore(), config.CacheConfig{
		TTL:       6 * time.Hour,
		KeyPrefix: "cfTagStats:",
	})
	service := tagstats.NewService(fetcher, cache, config.DefaultScoring(), nil)

	ctx := context.Background()
	if _, err := service.Stats(ctx, "tester", false); err != nil {
		t.Fatalf("seed request failed: %v", err)
	}

	warmer := NewWarmer(service, config.RefreshConfig{
		Interval:  15 * time.Minute,
		Margin:    30 * time.Minute,
		Retention: 48 * time.Hour,
	})

	// Snapshot is fresh: the cycle must not refetch
	warmer.warm(ctx)
	if fetcher.callCount() != 1 {
		t.Errorf("fresh snapshot was refetched: %d calls", fetcher.callCount())
	}

	// Age the snapshot past TTL minus margin
	service.SetClock(func() time.Time { return time.Now().Add(6 * time.Hour) })

	warmer.warm(ctx)
	if fetcher.callCount() != 2 {
		t.Errorf("stale snapshot was not refreshed: %d calls", fetcher.callCount())
	}
}
