package server

import (
	"fmt"
	"sync"
	"time"
)

// rateLimiter tracks per-client request rates and daily upload volume.
// Clients are keyed by IP address.
type rateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	maxBytesPerDay    int64

	clients map[string]*clientUsage
}

type clientUsage struct {
	minuteStart    time.Time
	requestsMinute int

	dayStart  time.Time
	bytesSent int64
}

func newRateLimiter(requestsPerMinute int, maxBytesPerDay int64) *rateLimiter {
	return &rateLimiter{
		requestsPerMinute: requestsPerMinute,
		maxBytesPerDay:    maxBytesPerDay,
		clients:           make(map[string]*clientUsage),
	}
}

// Allow checks whether a request of the given size from the client is
// permitted, and records it if so.
func (rl *rateLimiter) Allow(clientID string, size int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	usage, ok := rl.clients[clientID]
	if !ok {
		usage = &clientUsage{minuteStart: now, dayStart: now}
		rl.clients[clientID] = usage
	}

	if now.Sub(usage.minuteStart) >= time.Minute {
		usage.minuteStart = now
		usage.requestsMinute = 0
	}
	if now.Sub(usage.dayStart) >= 24*time.Hour {
		usage.dayStart = now
		usage.bytesSent = 0
	}

	if rl.requestsPerMinute > 0 && usage.requestsMinute >= rl.requestsPerMinute {
		return &LimitError{
			Scope:      "minute",
			Limit:      int64(rl.requestsPerMinute),
			RetryAfter: time.Minute - now.Sub(usage.minuteStart),
		}
	}
	if rl.maxBytesPerDay > 0 && usage.bytesSent+size > rl.maxBytesPerDay {
		return &LimitError{
			Scope:      "data",
			Limit:      rl.maxBytesPerDay,
			RetryAfter: 24*time.Hour - now.Sub(usage.dayStart),
		}
	}

	usage.requestsMinute++
	usage.bytesSent += size
	return nil
}

// LimitError reports a rate or quota violation.
type LimitError struct {
	Scope      string // "minute" or "data"
	Limit      int64
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("limit exceeded for %s (limit: %d, retry after: %v)", e.Scope, e.Limit, e.RetryAfter)
}
