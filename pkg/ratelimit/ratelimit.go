// Package ratelimit provides per-key token bucket rate limiting for
// write operations. Keys are opaque; callers typically combine tenant
// and principal identifiers.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleEvictAfter is how long an unused bucket survives before the next
// sweep removes it.
const idleEvictAfter = 10 * time.Minute

// sweepEvery bounds how often Allow scans the map for idle buckets.
const sweepEvery = time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out token buckets keyed by an opaque string.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	sustained rate.Limit
	burst     int
	lastSweep time.Time

	now func() time.Time
}

// New creates a limiter allowing burst immediate operations and a
// sustained rate per second thereafter, independently per key.
func New(burst int, sustained float64) *Limiter {
	return &Limiter{
		buckets:   make(map[string]*bucket),
		sustained: rate.Limit(sustained),
		burst:     burst,
		now:       time.Now,
	}
}

// Allow reports whether one operation for key may proceed now. When it
// may not, retryAfter is how long the caller should wait.
func (l *Limiter) Allow(key string) (allowed bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeSweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.sustained, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return true, 0
	}

	// Reserve without consuming to learn the wait, then cancel it.
	r := b.limiter.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	if wait <= 0 {
		wait = time.Second
	}
	return false, wait
}

// maybeSweep drops buckets idle past the eviction window. Runs inline
// under the lock so the limiter needs no background goroutine.
func (l *Limiter) maybeSweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	l.lastSweep = now

	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleEvictAfter {
			delete(l.buckets, key)
		}
	}
}

// Len reports the number of live buckets. Used by tests.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
