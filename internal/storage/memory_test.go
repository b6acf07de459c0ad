package storage

import (
	"context"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, found, err := store.Get(ctx, "missing"); err != nil || found {
		t.Errorf("missing key: found=%v err=%v", found, err)
	}

	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if value, found, _ := store.Get(ctx, "k"); !found || value != "v1" {
		t.Errorf("got %q found=%v, want v1", value, found)
	}

	// Set replaces wholesale
	if err := store.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if value, _, _ := store.Get(ctx, "k"); value != "v2" {
		t.Errorf("got %q, want v2", value)
	}

	if err := store.Ping(ctx); err != nil {
		t.Errorf("ping failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
}
