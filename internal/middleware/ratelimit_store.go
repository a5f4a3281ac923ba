package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// memoryRateStore provides process-local rate limiting. It is concurrency-safe.
type memoryRateStore struct {
	mu    sync.Mutex
	data  map[string]*memoryCounter
	clock func() time.Time
	calls int
}

type memoryCounter struct {
	count     int
	windowEnd time.Time
}

// sweepEvery controls how often expired counters are purged, counted in Increment calls.
const sweepEvery = 1024

// NewMemoryRateStore constructs an in-memory rate store.
func NewMemoryRateStore() RateStore {
	return &memoryRateStore{
		data:  make(map[string]*memoryCounter),
		clock: time.Now,
	}
}

func (s *memoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.calls%sweepEvery == 0 {
		for k, c := range s.data {
			if now.After(c.windowEnd) {
				delete(s.data, k)
			}
		}
	}

	counter, ok := s.data[key]
	if !ok || now.After(counter.windowEnd) {
		counter = &memoryCounter{windowEnd: now.Add(window)}
		s.data[key] = counter
	}

	counter.count++

	return counter.count, counter.windowEnd.Sub(now), nil
}

// redisRateStore shares counters between instances through Redis.
type redisRateStore struct {
	client redis.UniversalClient
}

// NewRedisRateStore builds a RateStore on top of a Redis client.
func NewRedisRateStore(client redis.UniversalClient) RateStore {
	if client == nil {
		return nil
	}
	return &redisRateStore{client: client}
}

func (s *redisRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit: redis incr: %w", err)
	}
	// The first hit of a window owns the expiry so the window does not slide.
	if count == 1 {
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("ratelimit: redis expire: %w", err)
		}
		return 1, window, nil
	}

	remaining, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit: redis ttl: %w", err)
	}
	if remaining < 0 {
		// Expiry was lost (e.g. the PEXPIRE call failed); restore it.
		_ = s.client.PExpire(ctx, key, window).Err()
		remaining = window
	}
	return int(count), remaining, nil
}
