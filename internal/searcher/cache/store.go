package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/resilience"
)

// Store holds serialized search results. A miss is found == false with a
// nil error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Purge(ctx context.Context, prefix string) (int64, error)
}

// LRUStore is an in-process store bounded by entry count. Entries expire
// after the TTL given at construction; the per-call TTL is ignored.
type LRUStore struct {
	lru *expirable.LRU[string, []byte]
}

func NewLRUStore(size int, ttl time.Duration) *LRUStore {
	if size <= 0 {
		size = 1024
	}
	return &LRUStore{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *LRUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

func (s *LRUStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.lru.Add(key, value)
	return nil
}

func (s *LRUStore) Purge(_ context.Context, prefix string) (int64, error) {
	var n int64
	for _, k := range s.lru.Keys() {
		if strings.HasPrefix(k, prefix) && s.lru.Remove(k) {
			n++
		}
	}
	return n, nil
}

func (s *LRUStore) Len() int {
	return s.lru.Len()
}

// KV is the subset of the Redis client the shared store needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

// RedisStore shares results between searcher instances. Calls go through a
// circuit breaker so an unavailable Redis degrades to cache misses quickly.
type RedisStore struct {
	kv      KV
	breaker *resilience.CircuitBreaker
}

func NewRedisStore(kv KV) *RedisStore {
	return &RedisStore{
		kv: kv,
		breaker: resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     10 * time.Second,
			IsFailure: func(err error) bool {
				return err != nil && !errors.Is(err, context.Canceled)
			},
		}),
	}
}

type lookup struct {
	data  []byte
	found bool
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := resilience.Call(s.breaker, func() (lookup, error) {
		data, found, err := s.kv.Get(ctx, key)
		return lookup{data: data, found: found}, err
	})
	if err != nil {
		return nil, false, err
	}
	return res.data, res.found, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.breaker.Execute(func() error {
		return s.kv.Set(ctx, key, value, ttl)
	})
}

func (s *RedisStore) Purge(ctx context.Context, prefix string) (int64, error) {
	return resilience.Call(s.breaker, func() (int64, error) {
		return s.kv.DeletePrefix(ctx, prefix)
	})
}

func (s *RedisStore) State() resilience.State {
	return s.breaker.GetState()
}

// BreakerName labels the store's circuit breaker in metrics.
func (s *RedisStore) BreakerName() string {
	return s.breaker.Name()
}
