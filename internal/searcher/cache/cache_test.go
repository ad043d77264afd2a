package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/redis"
)

type memRemote struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemRemote() *memRemote { return &memRemote{data: make(map[string][]byte)} }

func (m *memRemote) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, pkgredis.ErrMiss
	}
	return v, nil
}

func (m *memRemote) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memRemote) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func result(query string, ids ...string) executor.Result {
	return executor.Result{Query: query, Operator: parser.OpOR, TotalHits: len(ids), DocIDs: ids}
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key(1, "Boolean AND retrieval"), Key(1, "boolean and retrieval"), "case is folded")
	assert.NotEqual(t, Key(1, "boolean and retrieval"), Key(1, "boolean  and retrieval"), "spacing is kept")
	assert.NotEqual(t, Key(1, "boolean"), Key(2, "boolean"), "generation is part of the key")
	assert.True(t, strings.HasPrefix(Key(1, "x"), keyPrefix))
}

func TestGetOrCompute_LocalHit(t *testing.T) {
	c, err := New(16, nil, time.Minute, nil)
	require.NoError(t, err)

	calls := 0
	compute := func() executor.Result {
		calls++
		return result("a or b", "doc1", "doc2")
	}

	first, hit := c.GetOrCompute(context.Background(), 1, "a or b", compute)
	assert.False(t, hit)
	second, hit := c.GetOrCompute(context.Background(), 1, "A OR B", compute)
	assert.True(t, hit)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.DocIDs, second.DocIDs)
	assert.Equal(t, "A OR B", second.Query, "query echoes the caller's text")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.LocalHits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.LocalEntries)
	assert.False(t, stats.RemoteTier)
}

func TestGetOrCompute_NewGenerationMisses(t *testing.T) {
	c, err := New(16, nil, time.Minute, nil)
	require.NoError(t, err)

	calls := 0
	compute := func() executor.Result {
		calls++
		return result("q")
	}
	c.GetOrCompute(context.Background(), 1, "q", compute)
	c.GetOrCompute(context.Background(), 2, "q", compute)

	assert.Equal(t, 2, calls)
}

func TestGetOrCompute_RemoteTier(t *testing.T) {
	remote := newMemRemote()
	m := metrics.New(prometheus.NewRegistry())

	writer, err := New(16, remote, time.Minute, nil)
	require.NoError(t, err)
	writer.GetOrCompute(context.Background(), 3, "data not mining", func() executor.Result {
		return executor.Result{Query: "data not mining", Operator: parser.OpNOT, TotalHits: 1, DocIDs: []string{"doc1"}}
	})
	require.Len(t, remote.data, 1)

	// A second replica with a cold local tier is served from Redis.
	reader, err := New(16, remote, time.Minute, m)
	require.NoError(t, err)
	got, hit := reader.GetOrCompute(context.Background(), 3, "data not mining", func() executor.Result {
		t.Fatal("compute called despite remote hit")
		return executor.Result{}
	})

	assert.True(t, hit)
	assert.Equal(t, parser.OpNOT, got.Operator)
	assert.Equal(t, []string{"doc1"}, got.DocIDs)
	assert.Equal(t, int64(1), reader.Stats().RemoteHits)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("redis")))

	_, hit = reader.GetOrCompute(context.Background(), 3, "data not mining", nil)
	assert.True(t, hit, "remote hit is promoted to the local tier")
	assert.Equal(t, int64(1), reader.Stats().LocalHits)
}

func TestGetOrCompute_RemoteFailureFallsBackToCompute(t *testing.T) {
	remote := newMemRemote()
	remote.err = errors.New("connection refused")
	c, err := New(0, remote, time.Minute, nil)
	require.NoError(t, err)

	got, hit := c.GetOrCompute(context.Background(), 1, "x", func() executor.Result { return result("x", "d") })

	assert.False(t, hit)
	assert.Equal(t, []string{"d"}, got.DocIDs)
}

func TestGetOrCompute_CollapsesConcurrentMisses(t *testing.T) {
	c, err := New(0, nil, time.Minute, nil)
	require.NoError(t, err)

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() executor.Result {
		calls.Add(1)
		<-release
		return result("slow", "doc1")
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _ := c.GetOrCompute(context.Background(), 1, "slow", compute)
			assert.Equal(t, []string{"doc1"}, got.DocIDs)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(10))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestInvalidate(t *testing.T) {
	remote := newMemRemote()
	c, err := New(16, remote, time.Minute, nil)
	require.NoError(t, err)
	c.GetOrCompute(context.Background(), 1, "q", func() executor.Result { return result("q") })

	require.NoError(t, c.Invalidate(context.Background()))

	assert.Empty(t, remote.data)
	assert.Zero(t, c.Stats().LocalEntries)
}

type countingRemote struct {
	memRemote
	gets atomic.Int32
}

func (c *countingRemote) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets.Add(1)
	return c.memRemote.Get(ctx, key)
}

func TestGetOrCompute_OpenCircuitSkipsRemote(t *testing.T) {
	remote := &countingRemote{memRemote: memRemote{data: map[string][]byte{}, err: errors.New("i/o timeout")}}
	c, err := New(0, remote, time.Minute, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		got, hit := c.GetOrCompute(context.Background(), uint64(i), "q", func() executor.Result { return result("q", "d") })
		assert.False(t, hit)
		assert.Equal(t, []string{"d"}, got.DocIDs)
	}

	// Each miss fails one read and one write; the fifth failure (the third
	// read) opens the circuit.
	assert.Equal(t, int32(3), remote.gets.Load())
	assert.Equal(t, "open", c.Stats().RemoteState)
}

func TestGetOrCompute_RemoteMissDoesNotTripBreaker(t *testing.T) {
	remote := newMemRemote()
	c, err := New(0, remote, time.Minute, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		c.GetOrCompute(context.Background(), uint64(i), "q", func() executor.Result { return result("q") })
	}

	assert.Equal(t, "closed", c.Stats().RemoteState)
	assert.Len(t, remote.data, 10)
}
