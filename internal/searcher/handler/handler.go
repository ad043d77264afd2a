// Package handler serves the search and index HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/tracing"
)

// Engine is the part of indexer.Engine the handler needs.
type Engine interface {
	Current() *indexer.Snapshot
	SearchSnapshot(snap *indexer.Snapshot, query string) executor.Result
	Reload(ctx context.Context) (*indexer.Snapshot, error)
}

// QueryResult is one answered query of a search request.
type QueryResult struct {
	executor.Result
	Documents []corpus.Document `json:"documents,omitempty"`
	CacheHit  bool              `json:"cache_hit"`
}

// SearchResponse answers GET /api/v1/search. Every result comes from the
// same index generation.
type SearchResponse struct {
	Generation uint64        `json:"generation"`
	Results    []QueryResult `json:"results"`
	LatencyMs  int64         `json:"latency_ms"`
}

// TermResponse answers GET /api/v1/index/terms/{term}.
type TermResponse struct {
	Term      string   `json:"term"`
	TotalHits int      `json:"total_hits"`
	DocIDs    []string `json:"doc_ids"`
}

type Handler struct {
	engine         Engine
	cache          *cache.QueryCache
	maxQueries     int
	maxQueryLength int
	logger         *slog.Logger
}

// New creates a Handler. queryCache may be nil.
func New(engine Engine, queryCache *cache.QueryCache, cfg config.SearchConfig) *Handler {
	return &Handler{
		engine:         engine,
		cache:          queryCache,
		maxQueries:     cfg.MaxQueries,
		maxQueryLength: cfg.MaxQueryLength,
		logger:         logger.WithComponent("search-handler"),
	}
}

// Register mounts the search, index and cache routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("GET /api/v1/index/terms/{term}", h.Term)
	mux.HandleFunc("POST /api/v1/index/rebuild", h.Rebuild)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("DELETE /api/v1/cache", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	queries := parser.SplitBatch(r.URL.Query().Get("q"))
	if len(queries) == 0 {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	if len(queries) > h.maxQueries {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d queries per request", h.maxQueries))
		return
	}
	for _, q := range queries {
		if len(q) > h.maxQueryLength {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("queries must be at most %d bytes", h.maxQueryLength))
			return
		}
	}

	includeText := false
	if v := r.URL.Query().Get("include_text"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "include_text must be a boolean")
			return
		}
		includeText = parsed
	}

	snap := h.engine.Current()
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, apperrors.ErrIndexNotReady.Error())
		return
	}

	ctx, span := tracing.Start(ctx, "search")
	span.SetAttr("generation", snap.Generation)

	resp := SearchResponse{
		Generation: snap.Generation,
		Results:    make([]QueryResult, 0, len(queries)),
	}
	for _, q := range queries {
		_, qspan := tracing.Start(ctx, "query")
		var qr QueryResult
		compute := func() executor.Result { return h.engine.SearchSnapshot(snap, q) }
		if h.cache != nil {
			qr.Result, qr.CacheHit = h.cache.GetOrCompute(ctx, snap.Generation, q, compute)
		} else {
			qr.Result = compute()
		}
		if includeText {
			qr.Documents = documents(snap, qr.DocIDs)
		}
		qspan.SetAttr("operator", qr.Operator.String())
		qspan.SetAttr("hits", qr.TotalHits)
		qspan.SetAttr("cache_hit", qr.CacheHit)
		qspan.End()
		resp.Results = append(resp.Results, qr)
	}
	span.End()
	span.Log(ctx)
	resp.LatencyMs = time.Since(start).Milliseconds()

	log.Info("search completed",
		"queries", len(queries),
		"generation", snap.Generation,
		"latency_ms", resp.LatencyMs,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Current()
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, apperrors.ErrIndexNotReady.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Stats())
}

func (h *Handler) Term(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Current()
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, apperrors.ErrIndexNotReady.Error())
		return
	}
	term := strings.ToLower(r.PathValue("term"))
	postings := snap.Index.Lookup(term)
	h.writeJSON(w, http.StatusOK, TermResponse{
		Term:      term,
		TotalHits: postings.Len(),
		DocIDs:    postings.Sorted(),
	})
}

func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	snap, err := h.engine.Reload(r.Context())
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("rebuild failed", "error", err, "status_code", status)
		h.writeError(w, status, apperrors.Message(err))
		return
	}
	log.Info("rebuild requested", "generation", snap.Generation)
	h.writeJSON(w, http.StatusOK, snap.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	stats := h.cache.Stats()
	hits := stats.LocalHits + stats.RemoteHits
	total := hits + stats.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"local_hits":    stats.LocalHits,
		"remote_hits":   stats.RemoteHits,
		"misses":        stats.Misses,
		"total":         total,
		"local_entries": stats.LocalEntries,
		"remote_tier":   stats.RemoteTier,
		"hit_rate":      fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func documents(snap *indexer.Snapshot, ids []string) []corpus.Document {
	docs := make([]corpus.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, corpus.Document{ID: id, Text: snap.Corpus[id]})
	}
	return docs
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
