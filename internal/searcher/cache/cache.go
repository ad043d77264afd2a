// Package cache memoises query results per index generation. Results live in
// an in-process LRU and, when configured, a shared Redis tier. The generation
// is part of every key, so a rebuild makes all earlier entries unreachable
// without any explicit invalidation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/redis"
)

const keyPrefix = "boolsearch:query:"

// RemoteStore is the shared cache tier. pkg/redis.Client implements it; Get
// must return pkgredis.ErrMiss for absent keys.
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Stats are the cache counters since start.
type Stats struct {
	LocalHits    int64  `json:"local_hits"`
	RemoteHits   int64  `json:"remote_hits"`
	Misses       int64  `json:"misses"`
	LocalEntries int    `json:"local_entries"`
	RemoteTier   bool   `json:"remote_tier"`
	RemoteState  string `json:"remote_state,omitempty"`
}

// QueryCache is safe for concurrent use. Cached results are shared between
// callers and must be treated as read-only.
type QueryCache struct {
	local   *lru.Cache[string, executor.Result]
	remote  *guardedRemote
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger

	localHits  atomic.Int64
	remoteHits atomic.Int64
	misses     atomic.Int64
}

// New creates a QueryCache. localSize 0 disables the LRU tier, a nil remote
// disables the Redis tier. Remote calls are bounded by a short timeout and a
// circuit breaker; with both disabled GetOrCompute still collapses
// concurrent identical queries. m may be nil.
func New(localSize int, remote RemoteStore, ttl time.Duration, m *metrics.Metrics) (*QueryCache, error) {
	c := &QueryCache{
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
	if remote != nil {
		c.remote = newGuardedRemote(remote)
	}
	if localSize > 0 {
		local, err := lru.New[string, executor.Result](localSize)
		if err != nil {
			return nil, fmt.Errorf("creating local cache: %w", err)
		}
		c.local = local
	}
	return c, nil
}

// GetOrCompute returns the cached result of query at generation, or calls
// compute and stores what it returns. The bool reports a cache hit. The
// returned Result always carries query as given by this caller.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	generation uint64,
	query string,
	compute func() executor.Result,
) (executor.Result, bool) {
	key := Key(generation, query)
	if result, ok := c.get(ctx, key); ok {
		result.Query = query
		return result, true
	}

	val, _, _ := c.group.Do(key, func() (any, error) {
		if result, ok := c.lookupLocal(key); ok {
			return result, nil
		}
		result := compute()
		c.set(ctx, key, result)
		return result, nil
	})
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
	result := val.(executor.Result)
	result.Query = query
	return result, false
}

// Invalidate drops every entry from both tiers.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	if c.local != nil {
		c.local.Purge()
	}
	if c.remote == nil {
		return nil
	}
	deleted, err := c.remote.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns a snapshot of the counters.
func (c *QueryCache) Stats() Stats {
	s := Stats{
		LocalHits:  c.localHits.Load(),
		RemoteHits: c.remoteHits.Load(),
		Misses:     c.misses.Load(),
		RemoteTier: c.remote != nil,
	}
	if c.local != nil {
		s.LocalEntries = c.local.Len()
	}
	if c.remote != nil {
		s.RemoteState = c.remote.state().String()
	}
	return s
}

// Key derives the cache key of query at generation. Case is folded because
// parsing lower-cases the query; spacing is kept because operator splitting
// depends on it.
func Key(generation uint64, query string) string {
	raw := strconv.FormatUint(generation, 10) + "\x00" + strings.ToLower(query)
	hash := sha256.Sum256([]byte(raw))
	return keyPrefix + hex.EncodeToString(hash[:16])
}

func (c *QueryCache) get(ctx context.Context, key string) (executor.Result, bool) {
	if result, ok := c.lookupLocal(key); ok {
		c.localHits.Add(1)
		c.recordHit("local")
		return result, true
	}
	if c.remote == nil {
		return executor.Result{}, false
	}

	data, err := c.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, pkgredis.ErrMiss) {
			c.logger.Warn("remote cache get failed", "key", key, "error", err)
		}
		return executor.Result{}, false
	}
	var result executor.Result
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("remote cache entry undecodable", "key", key, "error", err)
		return executor.Result{}, false
	}
	if c.local != nil {
		c.local.Add(key, result)
	}
	c.remoteHits.Add(1)
	c.recordHit("redis")
	return result, true
}

func (c *QueryCache) lookupLocal(key string) (executor.Result, bool) {
	if c.local == nil {
		return executor.Result{}, false
	}
	return c.local.Get(key)
}

func (c *QueryCache) set(ctx context.Context, key string, result executor.Result) {
	if c.local != nil {
		c.local.Add(key, result)
	}
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.remote.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("remote cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) recordHit(tier string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}
