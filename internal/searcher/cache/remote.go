package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/resilience"
	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/redis"
)

const remoteCallTimeout = 250 * time.Millisecond

// guardedRemote bounds every Redis call and stops calling Redis while it is
// failing, so the shared tier can only ever slow a search by one timeout.
type guardedRemote struct {
	store   RemoteStore
	breaker *resilience.CircuitBreaker
	timeout time.Duration
}

func newGuardedRemote(store RemoteStore) *guardedRemote {
	return &guardedRemote{
		store: store,
		breaker: resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			IsFailure: func(err error) bool {
				return err != nil && !errors.Is(err, pkgredis.ErrMiss)
			},
		}),
		timeout: remoteCallTimeout,
	}
}

func (g *guardedRemote) Get(ctx context.Context, key string) ([]byte, error) {
	out := make(chan []byte, 1)
	err := g.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, g.timeout, "redis get", func(ctx context.Context) error {
			data, err := g.store.Get(ctx, key)
			if err != nil {
				return err
			}
			out <- data
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return <-out, nil
}

func (g *guardedRemote) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, g.timeout, "redis set", func(ctx context.Context) error {
			return g.store.Set(ctx, key, value, ttl)
		})
	})
}

// FlushByPattern is an administrative call: it bypasses the breaker and the
// per-call timeout.
func (g *guardedRemote) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	return g.store.FlushByPattern(ctx, pattern)
}

func (g *guardedRemote) state() resilience.State {
	return g.breaker.State()
}
