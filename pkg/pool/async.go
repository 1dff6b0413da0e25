// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	rferrors "github.com/absmach/rflink/pkg/errors"
	"github.com/absmach/rflink/pkg/stats"
)

// AsyncPool is the context driven connection pool. Cancelling the context
// passed to NewAsync, or calling Close, interrupts the worker even in the
// middle of a dial.
type AsyncPool struct {
	*core
	cancel  context.CancelFunc
	closing sync.Once
}

// NewAsync validates cfg and starts the worker under ctx.
func NewAsync(ctx context.Context, cfg Config, st *stats.Engine, opts ...Option) (*AsyncPool, error) {
	c, err := newCore(cfg, "async", st, opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &AsyncPool{core: c, cancel: cancel}
	go p.run(ctx)

	return p, nil
}

func (p *AsyncPool) run(ctx context.Context) {
	defer close(p.done)

	for i := 0; i < p.cfg.Size; i++ {
		conn, err := p.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.init.publish(rferrors.ErrPoolClosed)
				return
			}
			p.seedFailed(err)
			return
		}
		p.enqueue(conn)
	}
	p.init.publish(nil)
	p.logger.Debug("connection pool initialized",
		slog.String("address", p.cfg.Address),
		slog.Int("size", p.cfg.Size))

	for {
		if p.full() {
			if !sleep(ctx, p.cfg.ConnectTimeout/2) {
				return
			}
			continue
		}
		conn, err := p.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Debug("failed to connect to simulator",
				slog.String("address", p.cfg.Address),
				slog.String("error", err.Error()))
			if !sleep(ctx, p.backoff.Duration()) {
				return
			}
			continue
		}
		p.backoff.Reset()
		if ctx.Err() != nil {
			conn.Close()
			return
		}
		p.enqueue(conn)
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// EnsureInitialized waits for the initialization outcome, bounded by
// timeout and ctx.
func (p *AsyncPool) EnsureInitialized(ctx context.Context, timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-p.init.done:
		return p.init.err
	case <-t.C:
		return &rferrors.InitError{Timeout: timeout}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get takes one ready connection. A Get abandoned through ctx never
// removes a connection from the queue.
func (p *AsyncPool) Get(ctx context.Context) (net.Conn, error) {
	select {
	case conn := <-p.conns:
		return p.taken(conn), nil
	case <-p.done:
		return p.stopped()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close cancels the worker, waits for it to exit and closes every queued
// connection.
func (p *AsyncPool) Close() error {
	p.closing.Do(func() {
		p.cancel()
		<-p.done
		p.drain()
	})
	return nil
}
