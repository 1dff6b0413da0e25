// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func newTestBucket(rate float64, burst int) (*TokenBucket, *clock) {
	c := &clock{t: time.Unix(0, 0)}
	tb := NewTokenBucket(rate, burst)
	tb.now = c.now
	tb.last = c.t
	return tb, c
}

func TestTokenBucket(t *testing.T) {
	tb, c := newTestBucket(10, 2)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
	assert.ErrorIs(t, tb.Wait(), ErrRateLimitExceeded)

	c.t = c.t.Add(100 * time.Millisecond)
	require.NoError(t, tb.Wait())
	assert.False(t, tb.Allow())

	c.t = c.t.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestDisabled(t *testing.T) {
	tb := NewTokenBucket(0, 10)
	assert.Nil(t, tb)
	for i := 0; i < 1000; i++ {
		assert.True(t, tb.Allow())
	}
	assert.NoError(t, tb.Wait())
}
