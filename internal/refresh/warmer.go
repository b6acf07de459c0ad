package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/solvetrack/tagstat-engine/internal/config"
	"github.com/solvetrack/tagstat-engine/internal/tagstats"
)

// Warmer periodically recomputes snapshots that are close to expiry for
// recently requested handles, so interactive reads rarely pay the fetch
// cost. A failed recomputation leaves the stale snapshot untouched.
type Warmer struct {
	service *tagstats.Service
	cfg     config.RefreshConfig
}

// NewWarmer creates a new snapshot warmer
func NewWarmer(service *tagstats.Service, cfg config.RefreshConfig) *Warmer {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}

	return &Warmer{
		service: service,
		cfg:     cfg,
	}
}

// Start begins the warmer in a goroutine
func (w *Warmer) Start(ctx context.Context) {
	go w.run(ctx)
}

// run is the main loop for the warmer
func (w *Warmer) run(ctx context.Context) {
	slog.Info("snapshot warmer started",
		"interval", w.cfg.Interval,
		"margin", w.cfg.Margin,
	)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("snapshot warmer stopped")
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

// warm checks every tracked handle and recomputes stale snapshots
func (w *Warmer) warm(ctx context.Context) {
	handles := w.service.TrackedHandles(w.cfg.Retention)
	if len(handles) == 0 {
		slog.Debug("no tracked handles to warm")
		return
	}

	slog.Debug("running warm cycle", "handles", len(handles))

	for _, handle := range handles {
		refreshed, err := w.service.RefreshIfStale(ctx, handle, w.cfg.Margin)
		if err != nil {
			slog.Warn("failed to warm snapshot",
				"handle", handle,
				"error", err,
			)
			continue
		}

		if refreshed {
			slog.Info("snapshot warmed", "handle", handle)
		}
	}
}
