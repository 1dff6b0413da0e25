// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package transport sends one SOAP action per pooled simulator connection.
package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	rferrors "github.com/absmach/rflink/pkg/errors"
	"github.com/absmach/rflink/pkg/metrics"
	"github.com/absmach/rflink/pkg/pool"
	"github.com/absmach/rflink/pkg/soap"
	"github.com/absmach/rflink/pkg/stats"
)

var readers = sync.Pool{
	New: func() any { return bufio.NewReaderSize(nil, 4096) },
}

type options struct {
	metrics *metrics.Metrics
	timeout time.Duration
}

// Option configures a client.
type Option func(*options)

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRequestTimeout bounds each round trip, from write to the last body
// byte. Zero means no bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Client is the blocking transport client.
type Client struct {
	pool  *pool.Pool
	stats *stats.Engine
	opts  options
}

// New creates a Client drawing connections from p.
func New(p *pool.Pool, st *stats.Engine, opts ...Option) *Client {
	if st == nil {
		st = stats.New()
	}
	return &Client{pool: p, stats: st, opts: newOptions(opts)}
}

// SendAction performs one request. Write and read failures are returned as
// FaultError; the connection is closed whatever the outcome.
func (c *Client) SendAction(action, body string) (soap.Response, error) {
	var resp soap.Response
	_, err := c.opts.metrics.ObserveSOAP(action, func() (int, error) {
		conn, err := c.pool.Get()
		if err != nil {
			return 0, err
		}
		defer conn.Close()

		var deadline time.Time
		if c.opts.timeout > 0 {
			deadline = time.Now().Add(c.opts.timeout)
		}
		resp, err = exchange(conn, c.stats, action, body, deadline)
		return resp.StatusCode, err
	})
	return resp, err
}

// AsyncClient is the context driven transport client.
type AsyncClient struct {
	pool  *pool.AsyncPool
	stats *stats.Engine
	opts  options
}

// NewAsync creates an AsyncClient drawing connections from p.
func NewAsync(p *pool.AsyncPool, st *stats.Engine, opts ...Option) *AsyncClient {
	if st == nil {
		st = stats.New()
	}
	return &AsyncClient{pool: p, stats: st, opts: newOptions(opts)}
}

// SendAction performs one request. The earlier of the ctx deadline and the
// request timeout bounds the round trip, and cancelling ctx aborts it.
func (c *AsyncClient) SendAction(ctx context.Context, action, body string) (soap.Response, error) {
	var resp soap.Response
	_, err := c.opts.metrics.ObserveSOAP(action, func() (int, error) {
		conn, err := c.pool.Get(ctx)
		if err != nil {
			return 0, err
		}
		defer conn.Close()

		deadline, _ := ctx.Deadline()
		if c.opts.timeout > 0 {
			if d := time.Now().Add(c.opts.timeout); deadline.IsZero() || d.Before(deadline) {
				deadline = d
			}
		}
		stop := context.AfterFunc(ctx, func() {
			conn.SetDeadline(time.Now())
		})
		defer stop()

		resp, err = exchange(conn, c.stats, action, body, deadline)
		if err != nil && ctx.Err() != nil {
			err = rferrors.FaultFrom(fmt.Errorf("%s aborted: %w", action, ctx.Err()))
		}
		return resp.StatusCode, err
	})
	return resp, err
}

func exchange(conn net.Conn, st *stats.Engine, action, body string, deadline time.Time) (soap.Response, error) {
	if !deadline.IsZero() {
		if err := conn.SetDeadline(deadline); err != nil {
			st.IncrementErrors()
			return soap.Response{}, rferrors.FaultFrom(err)
		}
	}

	req := soap.BuildRequest(action, soap.EncodeEnvelope(action, body))
	if _, err := conn.Write(req); err != nil {
		st.IncrementErrors()
		return soap.Response{}, rferrors.FaultFrom(fmt.Errorf("writing %s request: %w", action, err))
	}
	st.IncrementRequests()

	r := readers.Get().(*bufio.Reader)
	r.Reset(conn)
	defer func() {
		r.Reset(nil)
		readers.Put(r)
	}()

	resp, err := soap.ReadResponse(r)
	if err != nil {
		st.IncrementErrors()
		return soap.Response{}, rferrors.FaultFrom(fmt.Errorf("reading %s response: %w", action, err))
	}
	return resp, nil
}
