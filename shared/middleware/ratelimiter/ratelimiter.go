package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// UserRateLimiter keeps one token bucket per identity. Buckets idle for
// longer than expirationTime are dropped.
type UserRateLimiter struct {
	limiters       map[string]*entry
	mu             sync.Mutex
	limit          rate.Limit
	burst          int
	expirationTime time.Duration
}

type entry struct {
	limiter *rate.Limiter
	timer   *time.Timer
}

// NewUserRateLimiter allows perSecond events per identity with bursts of up
// to burst. A non-positive perSecond disables limiting.
func NewUserRateLimiter(perSecond float64, burst int, expirationTime time.Duration) *UserRateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &UserRateLimiter{
		limiters:       make(map[string]*entry),
		limit:          limit,
		burst:          burst,
		expirationTime: expirationTime,
	}
}

func (url *UserRateLimiter) getLimiter(identity string) *rate.Limiter {
	url.mu.Lock()
	defer url.mu.Unlock()

	e, exists := url.limiters[identity]
	if !exists {
		e = &entry{limiter: rate.NewLimiter(url.limit, url.burst)}
		url.limiters[identity] = e
	}

	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(url.expirationTime, func() {
		url.cleanup(identity, e)
	})
	return e.limiter
}

func (url *UserRateLimiter) cleanup(identity string, e *entry) {
	url.mu.Lock()
	defer url.mu.Unlock()
	// the entry may have been replaced since the timer fired
	if url.limiters[identity] == e {
		delete(url.limiters, identity)
	}
}

// Allow checks if a request should be allowed for a given identity.
func (url *UserRateLimiter) Allow(identity string) bool {
	return url.getLimiter(identity).Allow()
}

// Len is the number of identities currently tracked.
func (url *UserRateLimiter) Len() int {
	url.mu.Lock()
	defer url.mu.Unlock()
	return len(url.limiters)
}

// Stop cleans up all timers.
func (url *UserRateLimiter) Stop() {
	url.mu.Lock()
	defer url.mu.Unlock()

	for _, e := range url.limiters {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}
