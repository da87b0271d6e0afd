package auth

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LoginLimiter throttles failed logins per client IP and email.
type LoginLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptRecord
	max      int
	window   time.Duration
	lockout  time.Duration
	now      func() time.Time
	stop     chan struct{}
}

type attemptRecord struct {
	count       int
	first       time.Time
	lockedUntil time.Time
}

type LoginLimitConfig struct {
	MaxAttempts     int           // default 5
	Window          time.Duration // default 15m
	Lockout         time.Duration // default 30m
	CleanupInterval time.Duration // default 5m
}

func NewLoginLimiter(cfg LoginLimitConfig) *LoginLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	l := &LoginLimiter{
		attempts: make(map[string]*attemptRecord),
		max:      cfg.MaxAttempts,
		window:   cfg.Window,
		lockout:  cfg.Lockout,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(cfg.CleanupInterval)
	return l
}

func (l *LoginLimiter) Stop() {
	close(l.stop)
}

func limiterKey(ip, email string) string {
	return ip + ":" + strings.ToLower(email)
}

// Allow reports whether another attempt is allowed and, if not, when to retry.
func (l *LoginLimiter) Allow(ip, email string) (bool, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.attempts[limiterKey(ip, email)]
	if !ok {
		return true, 0
	}
	if now.Before(rec.lockedUntil) {
		return false, rec.lockedUntil.Sub(now)
	}
	if now.Sub(rec.first) > l.window || rec.count < l.max {
		return true, 0
	}
	return false, l.lockout
}

// RecordFailure counts a failed attempt and reports whether it caused a lockout.
func (l *LoginLimiter) RecordFailure(ip, email string) bool {
	now := l.now()
	key := limiterKey(ip, email)
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.attempts[key]
	if !ok || now.Sub(rec.first) > l.window {
		rec = &attemptRecord{first: now}
		l.attempts[key] = rec
	}
	rec.count++
	if rec.count >= l.max {
		rec.lockedUntil = now.Add(l.lockout)
		return true
	}
	return false
}

func (l *LoginLimiter) RecordSuccess(ip, email string) {
	l.mu.Lock()
	delete(l.attempts, limiterKey(ip, email))
	l.mu.Unlock()
}

func (l *LoginLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

func (l *LoginLimiter) cleanup() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, rec := range l.attempts {
		if now.Sub(rec.first) > l.window+l.lockout && !now.Before(rec.lockedUntil) {
			delete(l.attempts, key)
		}
	}
}

// LoginEmail reads the email of a login attempt from the form or query.
func LoginEmail(c *gin.Context) string {
	if email := c.PostForm("email"); email != "" {
		return email
	}
	return c.Query("email")
}

// Middleware rejects login attempts from a locked-out IP and email pair.
func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := LoginEmail(c)
		if email == "" {
			c.Next()
			return
		}
		if ok, retryAfter := l.Allow(c.ClientIP(), email); !ok {
			c.Header("Retry-After", retryAfter.Round(time.Second).String())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many login attempts",
				"retry_after": retryAfter.Round(time.Second).String(),
			})
			return
		}
		c.Next()
	}
}
