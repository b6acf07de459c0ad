package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/solvetrack/tagstat-engine/internal/config"
	"github.com/solvetrack/tagstat-engine/internal/models"
	"github.com/solvetrack/tagstat-engine/internal/storage"
)

// Cache reads and writes serialized snapshots through a Store. Reads treat
// every failure mode uniformly as a miss: malformed JSON, a schema version
// other than the current one, and an expired TTL all trigger a rebuild.
// Writes are best-effort and never fail the pipeline.
type Cache struct {
	store     storage.Store
	ttl       time.Duration
	keyPrefix string
}

// NewCache creates a snapshot cache over the given store
func NewCache(store storage.Store, cfg config.CacheConfig) *Cache {
	return &Cache{
		store:     store,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
	}
}

// TTL returns the configured snapshot time-to-live
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Key returns the store key for a handle
func (c *Cache) Key(handle string) string {
	return c.keyPrefix + handle
}

// Get returns the cached snapshot for a handle, or (nil, false) on any kind
// of miss. Errors never propagate past the cache boundary.
func (c *Cache) Get(ctx context.Context, handle string, now time.Time) (*models.Snapshot, bool) {
	value, found, err := c.store.Get(ctx, c.Key(handle))
	if err != nil {
		slog.Warn("snapshot read failed, treating as miss", "handle", handle, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(value), &snap); err != nil {
		slog.Warn("snapshot corrupted, treating as miss", "handle", handle, "error", err)
		return nil, false
	}

	if snap.SchemaVersion != models.SnapshotSchemaVersion {
		slog.Debug("snapshot schema mismatch, treating as miss",
			"handle", handle,
			"stored", snap.SchemaVersion,
			"current", models.SnapshotSchemaVersion,
		)
		return nil, false
	}

	if snap.GeneratedAt.IsZero() || snap.Problems == nil || snap.Tags == nil {
		slog.Warn("snapshot structurally invalid, treating as miss", "handle", handle)
		return nil, false
	}

	if snap.Age(now) > c.ttl {
		slog.Debug("snapshot expired, treating as miss",
			"handle", handle,
			"age", snap.Age(now),
			"ttl", c.ttl,
		)
		return nil, false
	}

	return &snap, true
}

// Put stores a snapshot for a handle, replacing any previous one wholesale.
// Storage failures are logged and swallowed: the freshly computed in-memory
// result stays usable either way.
func (c *Cache) Put(ctx context.Context, snap *models.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		slog.Warn("failed to serialize snapshot", "handle", snap.Handle, "error", err)
		return
	}

	if err := c.store.Set(ctx, c.Key(snap.Handle), string(data)); err != nil {
		slog.Warn("failed to persist snapshot", "handle", snap.Handle, "error", err)
	}
}
