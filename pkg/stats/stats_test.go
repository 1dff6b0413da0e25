// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot(t *testing.T) {
	e := New()
	time.Sleep(10 * time.Millisecond)

	for i := 0; i < 5; i++ {
		e.IncrementRequests()
	}
	e.IncrementErrors()

	s := e.Snapshot()
	assert.Equal(t, uint32(5), s.RequestCount)
	assert.Equal(t, uint32(1), s.ErrorCount)
	assert.GreaterOrEqual(t, s.Runtime, 10*time.Millisecond)
	assert.InDelta(t, float64(5)/s.Runtime.Seconds(), s.Frequency, 1e-9)
}

func TestConcurrentIncrements(t *testing.T) {
	e := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				e.IncrementRequests()
				e.IncrementErrors()
			}
		}()
	}
	wg.Wait()

	s := e.Snapshot()
	assert.Equal(t, uint32(8000), s.RequestCount)
	assert.Equal(t, uint32(8000), s.ErrorCount)
}
