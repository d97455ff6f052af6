// Package ratelimit throttles login attempts against ChapterHub
// accounts. A fixed window counter per key keeps brute-force runs from
// hammering the bcrypt comparison, and the login handler pairs an
// IP-keyed limiter with an email-keyed one so neither a single host
// nor a single targeted account can be ground through.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts requests per key within a fixed window. Safe for
// concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	cleanup  time.Duration
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per duration for each
// key. Expired windows are reaped in the background so abandoned keys
// don't accumulate.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		cleanup:  duration * 2,
	}
	go l.cleanupLoop()
	return l
}

// Allow records an attempt for key and reports whether it fits inside
// the current window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{
			count:     1,
			expiresAt: now.Add(l.duration),
		}
		return true
	}

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many attempts key has left in its current
// window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		return l.limit
	}

	remaining := l.limit - w.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset forgets key entirely. A successful sign-in resets its email
// counter so a member who finally remembered their password isn't
// still paying for the earlier misses.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP resolves the caller's address, trusting proxy headers in the
// order X-Forwarded-For (first hop), X-Real-IP, then RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, use as-is.
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter throttles sign-in attempts on two axes: per client IP,
// which catches one host spraying many accounts, and per email, which
// catches many hosts converging on one account. Organiser and admin
// accounts are the obvious targets for the latter.
type LoginLimiter struct {
	ipLimiter    *Limiter
	emailLimiter *Limiter
}

// NewLoginLimiter returns a limiter with the production defaults:
// 10 attempts per IP per minute, 5 attempts per email per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		ipLimiter:    New(10, time.Minute),
		emailLimiter: New(5, 5*time.Minute),
	}
}

// NewLoginLimiterWithConfig returns a limiter with explicit limits.
// Tests use this to hit the ceiling without dozens of requests.
func NewLoginLimiterWithConfig(ipLimit int, ipDuration time.Duration, emailLimit int, emailDuration time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ipLimiter:    New(ipLimit, ipDuration),
		emailLimiter: New(emailLimit, emailDuration),
	}
}

// Check records a sign-in attempt and reports whether it may proceed.
// The reason string is written back to the client when blocked; it
// names the axis that tripped without leaking whether the account
// exists.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	ip := ClientIP(r)

	if !ll.ipLimiter.Allow(ip) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}

	if email != "" {
		emailKey := strings.ToLower(strings.TrimSpace(email))
		if !ll.emailLimiter.Allow(emailKey) {
			return false, "Too many login attempts for this account. Please wait a few minutes."
		}
	}

	return true, ""
}

// ResetEmail clears the per-account counter after a successful sign-in.
// The IP counter is left alone.
func (ll *LoginLimiter) ResetEmail(email string) {
	if email != "" {
		emailKey := strings.ToLower(strings.TrimSpace(email))
		ll.emailLimiter.Reset(emailKey)
	}
}
