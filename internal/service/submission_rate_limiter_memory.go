package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// memorySubmissionRateLimiter es el limitador por proceso que se usa cuando
// no hay redis. Un token bucket por usuario: max entregas por ventana.
// Un bucket sin uso durante una ventana ya esta lleno, asi que se descarta.
type memorySubmissionRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*userLimiter
	every     rate.Limit
	burst     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMemorySubmissionRateLimiter(window time.Duration, max int) SubmissionRateLimiter {
	return newMemorySubmissionRateLimiter(window, max, time.Now)
}

func newMemorySubmissionRateLimiter(window time.Duration, max int, now func() time.Time) *memorySubmissionRateLimiter {
	if window <= 0 {
		window = 10 * time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &memorySubmissionRateLimiter{
		limiters:  make(map[string]*userLimiter),
		every:     rate.Every(window / time.Duration(max)),
		burst:     max,
		window:    window,
		lastSweep: now(),
		now:       now,
	}
}

func (l *memorySubmissionRateLimiter) Allow(_ context.Context, userID string) bool {
	key := strings.TrimSpace(userID)
	if key == "" {
		return false
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}
	entry, ok := l.limiters[key]
	if !ok {
		entry = &userLimiter{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *memorySubmissionRateLimiter) sweep(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.window {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}
