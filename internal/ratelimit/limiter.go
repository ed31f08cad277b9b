// Package ratelimit throttles clients with a sliding window of request timestamps.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultWindow      = 60 * time.Second
	DefaultMaxRequests = 20
)

// Decision is the outcome of a Check. A rejected decision carries the number
// of seconds the client should wait before retrying.
type Decision struct {
	Allowed    bool
	RetryAfter int
}

// Limiter tracks recent request timestamps per client key.
type Limiter struct {
	mu      sync.Mutex
	clients map[string][]time.Time
	window  time.Duration
	max     int
	now     func() time.Time
}

func New(window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMaxRequests
	}
	return &Limiter{
		clients: make(map[string][]time.Time),
		window:  window,
		max:     max,
		now:     time.Now,
	}
}

func (l *Limiter) Window() time.Duration { return l.window }

// Check evicts expired timestamps for key and records the request if the
// client is still under the limit.
func (l *Limiter) Check(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(l.clients[key], now)
	if len(recent) >= l.max {
		l.clients[key] = recent
		return Decision{Allowed: false, RetryAfter: l.retryAfter()}
	}
	l.clients[key] = append(recent, now)
	return Decision{Allowed: true}
}

// Sweep re-filters every client and forgets those left without requests.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, stamps := range l.clients {
		recent := l.prune(stamps, now)
		if len(recent) == 0 {
			delete(l.clients, key)
			removed++
			continue
		}
		l.clients[key] = recent
	}
	return removed
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// prune filters in place; the caller must hold mu.
func (l *Limiter) prune(stamps []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

func (l *Limiter) retryAfter() int {
	secs := int(l.window / time.Second)
	if l.window%time.Second != 0 {
		secs++
	}
	return secs
}
