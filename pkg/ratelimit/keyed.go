package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per key. Buckets are created lazily
// and never removed; keys are viewer ids of a single device, so the map
// stays small.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewKeyedLimiter allows perMinute events per key with the given burst.
func NewKeyedLimiter(perMinute float64, burst int) *KeyedLimiter {
	if perMinute <= 0 {
		perMinute = 3
	}
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
	}
}

func (k *KeyedLimiter) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	if l, ok := k.limiters[key]; ok {
		return l
	}
	l := rate.NewLimiter(k.limit, k.burst)
	k.limiters[key] = l
	return l
}

// Allow consumes one token for key.
func (k *KeyedLimiter) Allow(key string) bool {
	return k.get(key).Allow()
}
