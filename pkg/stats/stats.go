// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package stats counts requests and errors for one bridge instance.
package stats

import (
	"sync/atomic"
	"time"
)

// Snapshot is an immutable view of the counters at one instant.
type Snapshot struct {
	Runtime      time.Duration
	ErrorCount   uint32
	RequestCount uint32
	// Frequency is RequestCount divided by Runtime in seconds.
	Frequency float64
}

// Engine holds the live counters. The zero value is not usable; use New.
type Engine struct {
	start    time.Time
	requests atomic.Uint32
	errors   atomic.Uint32
}

// New creates an Engine whose runtime starts now.
func New() *Engine {
	return &Engine{start: time.Now()}
}

// IncrementRequests records one request written to the simulator.
func (e *Engine) IncrementRequests() {
	e.requests.Add(1)
}

// IncrementErrors records one connect or transport failure.
func (e *Engine) IncrementErrors() {
	e.errors.Add(1)
}

// Snapshot returns the current counters.
func (e *Engine) Snapshot() Snapshot {
	runtime := time.Since(e.start)
	requests := e.requests.Load()

	var freq float64
	if secs := runtime.Seconds(); secs > 0 {
		freq = float64(requests) / secs
	}

	return Snapshot{
		Runtime:      runtime,
		ErrorCount:   e.errors.Load(),
		RequestCount: requests,
		Frequency:    freq,
	}
}
