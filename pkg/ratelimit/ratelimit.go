// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package ratelimit throttles tunnel requests with a token bucket so a
// misbehaving client cannot flood the simulator.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimitExceeded is returned when a request arrives with no token left.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// TokenBucket implements the token bucket algorithm. A nil *TokenBucket
// allows everything.
type TokenBucket struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	rate     float64 // tokens per second
	last     time.Time
	now      func() time.Time
}

// NewTokenBucket creates a bucket holding up to burst tokens, refilled at
// rate tokens per second. A non-positive rate disables limiting and
// returns nil.
func NewTokenBucket(rate float64, burst int) *TokenBucket {
	if rate <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	tb := &TokenBucket{
		capacity: float64(burst),
		tokens:   float64(burst),
		rate:     rate,
		now:      time.Now,
	}
	tb.last = tb.now()
	return tb
}

// Allow takes one token if available.
func (tb *TokenBucket) Allow() bool {
	if tb == nil {
		return true
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

// Wait takes one token, failing with ErrRateLimitExceeded instead of
// blocking.
func (tb *TokenBucket) Wait() error {
	if !tb.Allow() {
		return ErrRateLimitExceeded
	}
	return nil
}

func (tb *TokenBucket) refill() {
	now := tb.now()
	tb.tokens += now.Sub(tb.last).Seconds() * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.last = now
}
