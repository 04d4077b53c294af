/*
Package limiter provides per-key token bucket rate limiting.

Keys are usually client IP addresses, but any string works (e.g. an email address
for one-time code requests). Idle buckets are swept periodically.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"socialchat/internal/pkg/errs"
	"socialchat/internal/pkg/logx"
	"socialchat/internal/pkg/resp"
)

const sweepInterval = 3 * time.Minute

// KeyedRateLimiter keeps one token bucket per key.
type KeyedRateLimiter struct {
	mu     sync.RWMutex
	limits map[string]*rate.Limiter

	r rate.Limit
	b int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewKeyedRateLimiter creates a limiter allowing r events per second with burst b per key,
// and starts the background sweep of idle buckets.
func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	l := &KeyedRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		stop:   make(chan struct{}),
	}

	go l.sweep()

	return l
}

// Allow reports whether one more event for key is permitted now.
func (l *KeyedRateLimiter) Allow(key string) bool {
	return l.limiter(key).Allow()
}

func (l *KeyedRateLimiter) limiter(key string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limits[key]
	l.mu.RUnlock()

	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok = l.limits[key]; !ok {
		lim = rate.NewLimiter(l.r, l.b)
		l.limits[key] = lim
	}

	return lim
}

// Len returns the number of tracked keys.
func (l *KeyedRateLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limits)
}

// Stop ends the sweep goroutine.
func (l *KeyedRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *KeyedRateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			removed := l.removeIdle(now)
			logx.Info("Rate limiter sweep finished", "removed", removed, "remaining", l.Len())
		}
	}
}

// removeIdle drops buckets that have refilled completely, i.e. saw no recent traffic.
func (l *KeyedRateLimiter) removeIdle(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, lim := range l.limits {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(l.limits, key)
			removed++
		}
	}
	return removed
}

// ClientIP extracts the host part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}

// Middleware rejects requests over the per-IP budget with 429.
func (l *KeyedRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(ClientIP(r)) {
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
