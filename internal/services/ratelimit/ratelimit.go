// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package ratelimit bounds magic-link issuance per user over a fixed window.
package ratelimit

import (
	"strconv"
	"sync"
	"time"
)

type entry struct {
	count    int
	windowAt time.Time
}

// Limiter provides in-memory, per-key fixed-window rate limiting. All state
// lives behind one mutex, so concurrent requests for the same key cannot race
// the counter past the limit.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*entry
}

// New creates a Limiter allowing limit calls per window per key.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*entry),
	}
}

// Allow reports whether the key may proceed, counting this attempt.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, ok := l.entries[key]
	if !ok || now.After(e.windowAt) {
		l.entries[key] = &entry{count: 1, windowAt: now.Add(l.window)}
		return true
	}
	e.count++
	return e.count <= l.limit
}

// AllowUser is Allow keyed by a user id.
func (l *Limiter) AllowUser(userID int64) bool {
	return l.Allow(strconv.FormatInt(userID, 10))
}

// Cleanup removes expired entries. Called periodically from the server sweep.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, e := range l.entries {
		if now.After(e.windowAt) {
			delete(l.entries, key)
		}
	}
}
