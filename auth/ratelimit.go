package auth

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 3 * time.Minute
	limiterIdleAfter  = 5 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginLimiter throttles login attempts per client IP.
type loginLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*ipLimiter
	rate      rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newLoginLimiter(r rate.Limit, burst int, now func() time.Time) *loginLimiter {
	return &loginLimiter{
		limiters:  make(map[string]*ipLimiter),
		rate:      r,
		burst:     burst,
		lastSweep: now(),
		now:       now,
	}
}

// allow reports whether ip may attempt a login now.
func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterSweepEvery {
		for key, entry := range l.limiters {
			if now.Sub(entry.lastSeen) > limiterIdleAfter {
				delete(l.limiters, key)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// retryAfterSeconds is the Retry-After hint for a throttled client.
func (l *loginLimiter) retryAfterSeconds() int {
	if l.rate <= 0 {
		return 60
	}
	return max(int(1.0/float64(l.rate)), 1)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
