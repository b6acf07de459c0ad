package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solvetrack/tagstat-engine/internal/cfapi"
	"github.com/solvetrack/tagstat-engine/internal/models"
	"github.com/solvetrack/tagstat-engine/internal/stats"
	"github.com/solvetrack/tagstat-engine/internal/tagstats"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondServiceError maps pipeline errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error, handle string) {
	switch {
	case errors.Is(err, tagstats.ErrHandleRequired):
		respondError(w, http.StatusBadRequest, "validation_error", "handle is required")
	case errors.Is(err, cfapi.ErrSourceUnavailable):
		slog.Warn("source fetch failed", "handle", handle, "error", err)
		respondError(w, http.StatusBadGateway, "source_unavailable", "could not load data")
	default:
		slog.Error("stats pipeline error", "handle", handle, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to compute statistics")
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "store not reachable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Stats handlers

// tagView flattens a TagStat with its name for list responses
type tagView struct {
	Tag string `json:"tag"`
	models.TagStat
}

func tagViews(list []*models.TagStat) []tagView {
	views := make([]tagView, 0, len(list))
	for _, ts := range list {
		views = append(views, tagView{Tag: ts.Tag, TagStat: *ts})
	}
	return views
}

type statsResponse struct {
	Handle      string                `json:"handle"`
	Cached      bool                  `json:"cached"`
	RunID       string                `json:"runId,omitempty"`
	GeneratedAt time.Time             `json:"generatedAt"`
	Source      models.SnapshotSource `json:"source"`
	TagCount    int                   `json:"tagCount"`
	Tags        []tagView             `json:"tags"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	force := r.URL.Query().Get("force") == "true"

	result, err := s.service.Stats(r.Context(), handle, force)
	if err != nil {
		respondServiceError(w, err, handle)
		return
	}

	agg := result.Aggregate
	respondJSON(w, http.StatusOK, statsResponse{
		Handle:      agg.Handle,
		Cached:      result.Cached,
		RunID:       result.RunID,
		GeneratedAt: agg.GeneratedAt,
		Source:      agg.Source,
		TagCount:    len(agg.Tags),
		Tags:        tagViews(agg.SortedTags(stats.SortBySolved)),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	result, err := s.service.Stats(r.Context(), handle, true)
	if err != nil {
		respondServiceError(w, err, handle)
		return
	}

	agg := result.Aggregate
	respondJSON(w, http.StatusOK, statsResponse{
		Handle:      agg.Handle,
		Cached:      false,
		RunID:       result.RunID,
		GeneratedAt: agg.GeneratedAt,
		Source:      agg.Source,
		TagCount:    len(agg.Tags),
		Tags:        tagViews(agg.SortedTags(stats.SortBySolved)),
	})
}

func (s *Server) handleGetTags(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	mode, ok := stats.ParseSortMode(r.URL.Query().Get("sort"))
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "unknown sort mode")
		return
	}

	result, err := s.service.Stats(r.Context(), handle, false)
	if err != nil {
		respondServiceError(w, err, handle)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"handle": result.Aggregate.Handle,
		"sort":   string(mode),
		"cached": result.Cached,
		"tags":   tagViews(result.Aggregate.SortedTags(mode)),
	})
}

func (s *Server) handleGetIntersections(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	tags := parseTagList(r.URL.Query().Get("tags"))
	if len(tags) == 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "tags query parameter is required")
		return
	}

	buckets, err := s.service.Intersections(r.Context(), handle, tags)
	if err != nil {
		respondServiceError(w, err, handle)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"handle":  handle,
		"tags":    tags,
		"buckets": buckets,
	})
}

// parseTagList splits a comma-separated tag parameter, dropping empties
func parseTagList(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
