// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"log/slog"
	"time"

	rferrors "github.com/absmach/rflink/pkg/errors"
	"github.com/absmach/rflink/pkg/metrics"
	"github.com/absmach/rflink/pkg/pool"
	"github.com/absmach/rflink/pkg/soap"
	"github.com/absmach/rflink/pkg/telemetry"
)

// DefaultInitTimeout bounds the wait for the pool's seed connections.
const DefaultInitTimeout = 5 * time.Second

// Bridge is the blocking simulator interface.
type Bridge interface {
	// ExchangeData sends one control frame and returns the telemetry
	// sample taken after applying it.
	ExchangeData(inputs telemetry.ControlInputs) (telemetry.SimulatorState, error)
	// EnableRC gives control back to the RC transmitter.
	EnableRC() error
	// DisableRC hands control to this bridge.
	DisableRC() error
	// ResetAircraft resets the aircraft to its launch state.
	ResetAircraft() error
}

// AsyncBridge is the context driven simulator interface.
type AsyncBridge interface {
	ExchangeData(ctx context.Context, inputs telemetry.ControlInputs) (telemetry.SimulatorState, error)
	EnableRC(ctx context.Context) error
	DisableRC(ctx context.Context) error
	ResetAircraft(ctx context.Context) error
}

// Config holds local bridge configuration.
type Config struct {
	// Address is the simulator endpoint (host:port).
	Address string
	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout time.Duration
	// PoolSize is the number of connections kept ready.
	PoolSize int
	// InitTimeout bounds the wait for the pool to become ready.
	InitTimeout time.Duration
	// RequestTimeout bounds a single round trip. Zero means no bound.
	RequestTimeout time.Duration
}

func (c Config) pool() pool.Config {
	return pool.Config{
		Address:        c.Address,
		ConnectTimeout: c.ConnectTimeout,
		Size:           c.PoolSize,
	}
}

func (c Config) initTimeout() time.Duration {
	if c.InitTimeout <= 0 {
		return DefaultInitTimeout
	}
	return c.InitTimeout
}

type options struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a local bridge.
type Option func(*options)

// WithLogger sets the logger handed to the connection pool.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation of the pool and transport.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func stateFrom(resp soap.Response) (telemetry.SimulatorState, error) {
	if resp.StatusCode != soap.StatusOK {
		return telemetry.SimulatorState{}, rferrors.Fault(resp.FaultMessage())
	}
	return telemetry.DecodeSimulatorState(resp.Body)
}

func commandFrom(resp soap.Response) error {
	if resp.StatusCode != soap.StatusOK {
		return rferrors.Fault(resp.FaultMessage())
	}
	return nil
}
