package ingestor

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a token-bucket budget per source IP, §4.1,
// grounded on the pulse-sensor-proxy's per-peer rate.Limiter map.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

// NewRateLimiter builds a limiter allowing reqPerMinute requests per
// client, each bucket refilling continuously and holding up to burst
// tokens.
func NewRateLimiter(reqPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*rate.Limiter),
		rps:     rate.Limit(float64(reqPerMinute) / 60.0),
		burst:   burst,
	}
}

func (l *RateLimiter) Allow(clientIP string) bool {
	l.mu.Lock()
	lim, ok := l.entries[clientIP]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.entries[clientIP] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Prune drops limiters sitting at a full bucket (i.e. idle), so the
// map does not grow unbounded across many distinct source IPs. Call
// periodically from a background ticker.
func (l *RateLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for ip, lim := range l.entries {
		if lim.TokensAt(now) >= float64(l.burst) {
			delete(l.entries, ip)
		}
	}
}
