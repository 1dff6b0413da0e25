// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package pool keeps a bounded queue of freshly opened simulator connections.
//
// # Overview
//
// The simulator closes every connection after one request, so the cost of a
// request is dominated by the TCP handshake. A pool hides that cost by
// dialing ahead of demand: a single background worker fills a bounded ready
// queue, and each request takes exactly one connection out of it. Taken
// connections are never returned; the worker replaces them.
//
// # Worker Lifecycle
//
//  1. Seed: dial Size connections one after another. The first failure is
//     published as the initialization outcome and ends the worker, so a
//     failed pool never becomes ready later.
//  2. Publish success exactly once.
//  3. Refill: while the queue has spare capacity, dial and enqueue. When it
//     is full, wait half a connect timeout and recheck. A failed dial bumps
//     the shared error counter and backs off.
//  4. Stop when the pool is closed.
//
// # Variants
//
// Pool runs the worker as a plain goroutine driven by an atomic liveness
// flag and blocks callers in Get. AsyncPool drives the worker with a
// context so that cancellation interrupts an in-flight dial or wait, and
// every blocking call takes a context.
//
// Both share the same Config and the same once-published readiness outcome.
package pool
