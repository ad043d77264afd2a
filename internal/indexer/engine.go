// Package indexer owns the served index. An Engine builds an immutable
// Snapshot (corpus, inverted index, generation) from a corpus source and
// publishes it with a single atomic pointer swap, so queries never observe a
// partially built index and never block on a rebuild.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
)

// Snapshot is one immutable build of the index together with the corpus it
// was built from.
type Snapshot struct {
	Corpus        corpus.Corpus
	Index         *index.InvertedIndex
	Generation    uint64
	BuiltAt       time.Time
	BuildDuration time.Duration
}

// Stats summarises a snapshot for the stats endpoint and the CLI.
type Stats struct {
	Generation      uint64    `json:"generation"`
	Documents       int       `json:"documents"`
	IndexedDocs     int       `json:"indexed_documents"`
	Terms           int       `json:"terms"`
	BuiltAt         time.Time `json:"built_at"`
	BuildDurationMs int64     `json:"build_duration_ms"`
}

// Stats reports the size of the snapshot. Documents counts the corpus;
// IndexedDocs only those with at least one term.
func (s *Snapshot) Stats() Stats {
	return Stats{
		Generation:      s.Generation,
		Documents:       len(s.Corpus),
		IndexedDocs:     s.Index.NumDocs(),
		Terms:           s.Index.NumTerms(),
		BuiltAt:         s.BuiltAt,
		BuildDurationMs: s.BuildDuration.Milliseconds(),
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithMinDocuments overrides corpus.DefaultMinDocuments.
func WithMinDocuments(n int) Option {
	return func(e *Engine) { e.minDocs = n }
}

// WithMetrics records build and query metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine serves queries from the current snapshot and rebuilds it on demand.
type Engine struct {
	current   atomic.Pointer[Snapshot]
	rebuildMu sync.Mutex
	source    corpus.Source
	minDocs   int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewEngine creates an Engine that loads documents from source. No index is
// served until the first successful Reload or Rebuild.
func NewEngine(source corpus.Source, opts ...Option) *Engine {
	e := &Engine{
		source:  source,
		minDocs: corpus.DefaultMinDocuments,
		logger:  logger.WithComponent("indexer"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Current returns the served snapshot, or nil before the first build.
func (e *Engine) Current() *Snapshot {
	return e.current.Load()
}

// Reload reads the whole corpus from the source and rebuilds from it.
func (e *Engine) Reload(ctx context.Context) (*Snapshot, error) {
	if e.source == nil {
		return nil, apperrors.New(apperrors.ErrInvalidInput, 400, "engine has no corpus source")
	}
	start := time.Now()
	docs, err := e.source.Load(ctx)
	if err != nil {
		e.observeBuild("failure", start)
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	return e.Rebuild(docs)
}

// Rebuild validates docs, builds a new index and swaps it in. On failure the
// previous snapshot keeps serving. Rebuilds are serialised so generations
// are strictly increasing.
func (e *Engine) Rebuild(docs corpus.Corpus) (*Snapshot, error) {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	start := time.Now()
	if err := corpus.Validate(docs, e.minDocs); err != nil {
		e.observeBuild("failure", start)
		e.logger.Warn("rejected corpus", "documents", len(docs), "error", err)
		return nil, err
	}

	owned := docs.Clone()
	idx := index.Build(owned)

	var gen uint64 = 1
	if prev := e.current.Load(); prev != nil {
		gen = prev.Generation + 1
	}
	snap := &Snapshot{
		Corpus:        owned,
		Index:         idx,
		Generation:    gen,
		BuiltAt:       time.Now().UTC(),
		BuildDuration: time.Since(start),
	}
	e.current.Store(snap)

	e.observeBuild("success", start)
	if e.metrics != nil {
		e.metrics.IndexTerms.Set(float64(idx.NumTerms()))
		e.metrics.IndexDocuments.Set(float64(len(owned)))
		e.metrics.IndexGeneration.Set(float64(gen))
	}
	e.logger.Info("index rebuilt",
		"generation", gen,
		"documents", len(owned),
		"terms", idx.NumTerms(),
		"duration_ms", snap.BuildDuration.Milliseconds(),
	)
	return snap, nil
}

// Search evaluates query against the current snapshot.
func (e *Engine) Search(query string) (executor.Result, error) {
	snap := e.current.Load()
	if snap == nil {
		return executor.Result{}, apperrors.New(apperrors.ErrIndexNotReady, 503, "index has not been built yet")
	}
	return e.SearchSnapshot(snap, query), nil
}

// SearchSnapshot evaluates query against a specific snapshot. Callers that
// answer several queries in one request pin a snapshot so all answers come
// from the same generation.
func (e *Engine) SearchSnapshot(snap *Snapshot, query string) executor.Result {
	start := time.Now()
	result := executor.Execute(snap.Index, query)
	if e.metrics != nil {
		e.metrics.SearchQueriesTotal.WithLabelValues(result.Operator.String()).Inc()
		e.metrics.SearchLatency.Observe(time.Since(start).Seconds())
		e.metrics.SearchResultsCount.Observe(float64(result.TotalHits))
	}
	return result
}

func (e *Engine) observeBuild(status string, start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		e.metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
	}
}
