// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	rferrors "github.com/absmach/rflink/pkg/errors"
	"github.com/absmach/rflink/pkg/metrics"
	"github.com/absmach/rflink/pkg/stats"
	"github.com/jpillora/backoff"
)

// Default configuration values.
const (
	DefaultAddress        = "127.0.0.1:18083"
	DefaultConnectTimeout = 5 * time.Millisecond
	DefaultSize           = 1
)

// ErrInvalidConfig is returned by the constructors for unusable settings.
var ErrInvalidConfig = errors.New("invalid pool configuration")

// Config holds connection pool configuration.
type Config struct {
	// Address is the simulator endpoint (host:port).
	Address string
	// ConnectTimeout bounds a single dial. It is also the refill poll
	// period (halved) and the initial back-off after a failed dial.
	ConnectTimeout time.Duration
	// Size is the capacity of the ready queue.
	Size int
	// MaxBackoff caps the back-off between failed dials. It defaults to
	// ConnectTimeout, which keeps the back-off at one interval.
	MaxBackoff time.Duration
}

func (c Config) withDefaults() (Config, error) {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Size == 0 {
		c.Size = DefaultSize
	}
	if c.MaxBackoff < c.ConnectTimeout {
		c.MaxBackoff = c.ConnectTimeout
	}
	if c.Size < 0 || c.ConnectTimeout < 0 {
		return c, fmt.Errorf("%w: size %d, connect timeout %s", ErrInvalidConfig, c.Size, c.ConnectTimeout)
	}
	return c, nil
}

// DialFunc is a function that creates a new connection.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Option configures a pool.
type Option func(*core)

// WithDialer replaces the TCP dialer.
func WithDialer(dial DialFunc) Option {
	return func(c *core) {
		c.dial = dial
	}
}

// WithLogger sets the logger for worker events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *core) {
		c.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *core) {
		c.metrics = m
	}
}

// outcome is the once-published initialization result.
type outcome struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newOutcome() *outcome {
	return &outcome{done: make(chan struct{})}
}

func (o *outcome) publish(err error) {
	o.once.Do(func() {
		o.err = err
		close(o.done)
	})
}

// result returns the published error, or nil when nothing was published.
func (o *outcome) result() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

// core holds what both pool variants share.
type core struct {
	cfg     Config
	model   string
	dial    DialFunc
	stats   *stats.Engine
	logger  *slog.Logger
	metrics *metrics.Metrics
	backoff *backoff.Backoff
	conns   chan net.Conn
	init    *outcome
	done    chan struct{}
}

func newCore(cfg Config, model string, st *stats.Engine, opts []Option) (*core, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = stats.New()
	}

	c := &core{
		cfg:   cfg,
		model: model,
		stats: st,
		backoff: &backoff.Backoff{
			Min:    cfg.ConnectTimeout,
			Max:    cfg.MaxBackoff,
			Factor: 2,
		},
		conns: make(chan net.Conn, cfg.Size),
		init:  newOutcome(),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.dial == nil {
		d := &net.Dialer{Timeout: cfg.ConnectTimeout}
		c.dial = func(ctx context.Context) (net.Conn, error) {
			return d.DialContext(ctx, "tcp", cfg.Address)
		}
	}
	return c, nil
}

func (c *core) connect(ctx context.Context) (net.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	conn, err := c.dial(dctx)
	if err != nil {
		// Dials aborted by shutdown are not failures.
		if ctx.Err() == nil {
			c.stats.IncrementErrors()
			c.metrics.ConnectFailed(c.model)
		}
		return nil, err
	}
	return conn, nil
}

func (c *core) seedFailed(err error) {
	c.init.publish(&rferrors.InitError{
		Reason: fmt.Sprintf("Failed to connect to simulator at %s: %v", c.cfg.Address, err),
	})
	c.logger.Error("connection pool initialization failed",
		slog.String("address", c.cfg.Address),
		slog.String("error", err.Error()))
}

func (c *core) enqueue(conn net.Conn) {
	// The worker is the only producer, so a send after a capacity check
	// never blocks.
	c.conns <- conn
	c.metrics.SetReady(c.model, len(c.conns))
}

func (c *core) full() bool {
	return len(c.conns) >= cap(c.conns)
}

// stopped returns the error Get reports once the worker has exited and the
// queue is empty.
func (c *core) stopped() (net.Conn, error) {
	select {
	case conn := <-c.conns:
		return conn, nil
	default:
	}
	if err := c.init.result(); err != nil {
		return nil, err
	}
	return nil, rferrors.ErrPoolClosed
}

func (c *core) taken(conn net.Conn) net.Conn {
	c.metrics.SetReady(c.model, len(c.conns))
	return conn
}

// drain closes every queued connection. It must only run after the worker
// has exited.
func (c *core) drain() {
	for {
		select {
		case conn := <-c.conns:
			conn.Close()
		default:
			c.metrics.SetReady(c.model, 0)
			return
		}
	}
}

// Ready returns the number of connections waiting in the queue.
func (c *core) Ready() int {
	return len(c.conns)
}

// Initialized reports whether the pool published a successful
// initialization and is still running.
func (c *core) Initialized() bool {
	select {
	case <-c.done:
		return false
	case <-c.init.done:
		return c.init.err == nil
	default:
		return false
	}
}

// Pool is the blocking connection pool. Its worker is a goroutine stopped
// through an atomic liveness flag.
type Pool struct {
	*core
	running atomic.Bool
	closing sync.Once
}

// New validates cfg, starts the worker and returns immediately. Use
// EnsureInitialized to wait for the seed connections.
func New(cfg Config, st *stats.Engine, opts ...Option) (*Pool, error) {
	c, err := newCore(cfg, "sync", st, opts)
	if err != nil {
		return nil, err
	}

	p := &Pool{core: c}
	p.running.Store(true)
	go p.run()

	return p, nil
}

func (p *Pool) run() {
	defer close(p.done)

	for i := 0; i < p.cfg.Size; i++ {
		if !p.running.Load() {
			p.init.publish(rferrors.ErrPoolClosed)
			return
		}
		conn, err := p.connect(context.Background())
		if err != nil {
			p.seedFailed(err)
			return
		}
		p.enqueue(conn)
	}
	p.init.publish(nil)
	p.logger.Debug("connection pool initialized",
		slog.String("address", p.cfg.Address),
		slog.Int("size", p.cfg.Size))

	for p.running.Load() {
		if p.full() {
			time.Sleep(p.cfg.ConnectTimeout / 2)
			continue
		}
		conn, err := p.connect(context.Background())
		if err != nil {
			p.logger.Debug("failed to connect to simulator",
				slog.String("address", p.cfg.Address),
				slog.String("error", err.Error()))
			time.Sleep(p.backoff.Duration())
			continue
		}
		p.backoff.Reset()
		p.enqueue(conn)
	}
}

// EnsureInitialized blocks until the worker publishes its initialization
// outcome or timeout elapses.
func (p *Pool) EnsureInitialized(timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-p.init.done:
		return p.init.err
	case <-t.C:
		return &rferrors.InitError{Timeout: timeout}
	}
}

// Get takes one ready connection, blocking until the worker provides it.
// The caller owns the connection and must close it.
func (p *Pool) Get() (net.Conn, error) {
	select {
	case conn := <-p.conns:
		return p.taken(conn), nil
	case <-p.done:
		return p.stopped()
	}
}

// Close stops the worker and closes every queued connection.
func (p *Pool) Close() error {
	p.closing.Do(func() {
		p.running.Store(false)
		<-p.done
		p.drain()
	})
	return nil
}
