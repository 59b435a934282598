// Package ratelimit holds the request limiters of the HTTP surface.
//
// LoginRateLimiter is a fixed-window counter per client IP used to slow
// down password guessing. KeyedLimiter is a token bucket per key (viewer
// id) used for post reports.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/akinalp/blogme/pkg/cache"
)

// attemptWindow counts the attempts of one IP since start.
type attemptWindow struct {
	count int
	start time.Time
}

// LoginRateLimiter allows maxAttempts login attempts per IP per window.
// A successful login resets the IP. Windows live in a TTL cache, so idle
// IPs age out on their own.
type LoginRateLimiter struct {
	windows     *cache.TTLCache[string, attemptWindow]
	maxAttempts int
	window      time.Duration
}

// NewLoginRateLimiter starts a limiter. Call Close to stop its sweeper.
func NewLoginRateLimiter(maxAttempts int, window time.Duration) *LoginRateLimiter {
	return &LoginRateLimiter{
		windows:     cache.New[string, attemptWindow](window, time.Minute),
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Allow records one attempt for ip and reports whether it is within limit.
func (rl *LoginRateLimiter) Allow(ip string) bool {
	now := time.Now()
	w := rl.windows.Update(ip, func(cur attemptWindow, found bool) attemptWindow {
		if !found || now.Sub(cur.start) > rl.window {
			return attemptWindow{count: 1, start: now}
		}
		cur.count++
		return cur
	})
	return w.count <= rl.maxAttempts
}

// Reset forgets ip, called after a successful login.
func (rl *LoginRateLimiter) Reset(ip string) {
	rl.windows.Delete(ip)
}

// RetryAfterSeconds is the value for the Retry-After header.
func (rl *LoginRateLimiter) RetryAfterSeconds(ip string) int {
	w, ok := rl.windows.Get(ip)
	if !ok {
		return 0
	}
	remaining := rl.window - time.Since(w.start)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Close stops the sweeper. It is safe to call more than once.
func (rl *LoginRateLimiter) Close() {
	rl.windows.Close()
}

// ExtractIP returns the client IP, honouring X-Forwarded-For and X-Real-IP.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatRetryMessage renders a wait time without words ("45s", "2m5s"),
// so it reads the same in every locale.
func FormatRetryMessage(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return (time.Duration(seconds) * time.Second).String()
}
