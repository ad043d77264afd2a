package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
)

type failingSource struct{ err error }

func (s failingSource) Load(context.Context) (corpus.Corpus, error) { return nil, s.err }

func TestEngine_NotReadyBeforeFirstBuild(t *testing.T) {
	e := NewEngine(corpus.NewStaticSource(corpus.Sample()))

	assert.Nil(t, e.Current())

	_, err := e.Search("boolean")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrIndexNotReady)
	assert.Equal(t, 503, apperrors.HTTPStatusCode(err))
}

func TestEngine_ReloadAndSearch(t *testing.T) {
	e := NewEngine(corpus.NewStaticSource(corpus.Sample()))

	snap, err := e.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Same(t, snap, e.Current())

	res, err := e.Search("Boolean and retrieval")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1", "doc2"}, res.DocIDs)
	assert.Equal(t, 2, res.TotalHits)

	stats := snap.Stats()
	assert.Equal(t, 7, stats.Documents)
	assert.Equal(t, 7, stats.IndexedDocs)
	assert.Positive(t, stats.Terms)
}

func TestEngine_GenerationIncreases(t *testing.T) {
	e := NewEngine(nil)

	first, err := e.Rebuild(corpus.Corpus{"a": "red fox", "b": "blue fox"})
	require.NoError(t, err)
	second, err := e.Rebuild(corpus.Corpus{"a": "red fox", "b": "blue fox", "c": "green"})
	require.NoError(t, err)

	assert.Equal(t, first.Generation+1, second.Generation)
	assert.Same(t, second, e.Current())
}

func TestEngine_RejectedCorpusKeepsPreviousSnapshot(t *testing.T) {
	e := NewEngine(nil)
	good, err := e.Rebuild(corpus.Corpus{"a": "red fox", "b": "blue fox"})
	require.NoError(t, err)

	_, err = e.Rebuild(corpus.Corpus{"only": "one document"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotEnoughDocuments)
	assert.Same(t, good, e.Current())
}

func TestEngine_MinDocumentsOption(t *testing.T) {
	e := NewEngine(nil, WithMinDocuments(1))

	_, err := e.Rebuild(corpus.Corpus{"only": "one document"})
	require.NoError(t, err)
}

func TestEngine_RebuildCopiesCorpus(t *testing.T) {
	e := NewEngine(nil)
	docs := corpus.Corpus{"a": "red fox", "b": "blue fox"}
	_, err := e.Rebuild(docs)
	require.NoError(t, err)

	docs["c"] = "mutated after build"
	assert.Len(t, e.Current().Corpus, 2)
}

func TestEngine_ReloadSourceError(t *testing.T) {
	boom := errors.New("disk on fire")
	e := NewEngine(failingSource{err: boom})

	_, err := e.Reload(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, e.Current())
}

func TestEngine_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e := NewEngine(corpus.NewStaticSource(corpus.Sample()), WithMetrics(m))

	_, err := e.Reload(context.Background())
	require.NoError(t, err)
	_, err = e.Rebuild(corpus.Corpus{"x": "lonely"})
	require.Error(t, err)

	_, err = e.Search("data not mining")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("failure")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.IndexDocuments))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexGeneration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("NOT")))
}

// Readers running during rebuilds must always see a complete snapshot: the
// two corpora are built so that every query has a known answer in each.
func TestEngine_ConcurrentSearchDuringRebuild(t *testing.T) {
	small := corpus.Corpus{"a": "alpha beta", "b": "beta gamma"}
	large := corpus.Corpus{"a": "alpha beta", "b": "beta gamma", "c": "alpha gamma", "d": "delta"}

	e := NewEngine(nil)
	_, err := e.Rebuild(small)
	require.NoError(t, err)

	valid := map[string]bool{
		"[a]":   true,
		"[a c]": true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				res, err := e.Search("alpha")
				if err != nil {
					errs <- err
					return
				}
				got := fmt.Sprint(res.DocIDs)
				if !valid[got] {
					errs <- fmt.Errorf("torn read: %s", got)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		docs := small
		if i%2 == 0 {
			docs = large
		}
		_, err := e.Rebuild(docs)
		require.NoError(t, err)
	}
	cancel()
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, uint64(201), e.Current().Generation)
}
