package ratelimit

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// Decision is the result of a single Allow call.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Limit is the number of requests permitted per window.
	Limit int
	// Remaining is the number of requests still permitted in the current window.
	Remaining int
	// Reset is the time until the oldest counted request leaves the window.
	Reset time.Duration
}

// Limiter is a sliding-window log limiter keyed by client identity.
// It is safe for concurrent use.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	clients *lru.Cache
	now     func() time.Time
}

// New creates a Limiter permitting limit requests per window for each key.
// At most maxClients keys are tracked at once; past that the least recently
// seen key is evicted and starts over with a full budget, so maxClients
// should exceed the number of distinct clients expected within one window.
func New(limit int, window time.Duration, maxClients int) (*Limiter, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	if maxClients <= 0 {
		return nil, ErrInvalidMaxClients
	}

	cache, err := lru.New(maxClients)
	if err != nil {
		return nil, fmt.Errorf("failed to create client table: %w", err)
	}

	return &Limiter{
		limit:   limit,
		window:  window,
		clients: cache,
		now:     time.Now,
	}, nil
}

// Limit returns the number of requests permitted per window.
func (l *Limiter) Limit() int {
	return l.limit
}

// Window returns the window duration.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Allow records a request for key and reports whether it is within the limit.
// Rejected requests are not counted against the window.
func (l *Limiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	var hits []time.Time
	if v, ok := l.clients.Get(key); ok {
		hits = v.([]time.Time)
	}

	// Timestamps are appended in order, so expired ones form a prefix.
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]

	if len(hits) >= l.limit {
		l.clients.Add(key, hits)
		return Decision{
			Allowed:   false,
			Limit:     l.limit,
			Remaining: 0,
			Reset:     hits[0].Add(l.window).Sub(now),
		}
	}

	hits = append(hits, now)
	l.clients.Add(key, hits)

	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(hits),
		Reset:     hits[0].Add(l.window).Sub(now),
	}
}

// Clients returns the number of keys currently tracked.
func (l *Limiter) Clients() int {
	return l.clients.Len()
}
