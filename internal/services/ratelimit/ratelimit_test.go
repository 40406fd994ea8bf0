// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowUpToLimit(t *testing.T) {
	limiter := New(3, time.Minute)

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
}

func TestKeysAreIndependent(t *testing.T) {
	limiter := New(1, time.Minute)

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"))
}

func TestWindowResets(t *testing.T) {
	limiter := New(1, 10*time.Millisecond)

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, limiter.Allow("a"))
}

func TestAllowUser(t *testing.T) {
	limiter := New(2, time.Minute)

	assert.True(t, limiter.AllowUser(42))
	assert.True(t, limiter.AllowUser(42))
	assert.False(t, limiter.AllowUser(42))
	assert.True(t, limiter.AllowUser(43))
}

func TestCleanup(t *testing.T) {
	limiter := New(1, 10*time.Millisecond)

	limiter.Allow("a")
	limiter.Allow("b")

	time.Sleep(20 * time.Millisecond)
	limiter.Cleanup()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Empty(t, limiter.entries)
}
