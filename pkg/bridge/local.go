// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"

	"github.com/absmach/rflink/pkg/pool"
	"github.com/absmach/rflink/pkg/soap"
	"github.com/absmach/rflink/pkg/stats"
	"github.com/absmach/rflink/pkg/telemetry"
	"github.com/absmach/rflink/pkg/transport"
)

var (
	_ Bridge      = (*Local)(nil)
	_ AsyncBridge = (*AsyncLocal)(nil)
)

type soapClient interface {
	SendAction(action, body string) (soap.Response, error)
}

type asyncSoapClient interface {
	SendAction(ctx context.Context, action, body string) (soap.Response, error)
}

// Local talks to a simulator on the network through the blocking pool.
type Local struct {
	client soapClient
	pool   *pool.Pool
	stats  *stats.Engine
}

// NewLocal starts the connection pool and waits for it to become ready.
// An initialization failure is returned and the pool is torn down.
func NewLocal(cfg Config, opts ...Option) (*Local, error) {
	o := newOptions(opts)
	st := stats.New()

	p, err := pool.New(cfg.pool(), st, pool.WithLogger(o.logger), pool.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}
	if err := p.EnsureInitialized(cfg.initTimeout()); err != nil {
		p.Close()
		return nil, err
	}

	client := transport.New(p, st,
		transport.WithMetrics(o.metrics),
		transport.WithRequestTimeout(cfg.RequestTimeout))

	return &Local{client: client, pool: p, stats: st}, nil
}

// ExchangeData sends one control frame and decodes the telemetry reply.
func (b *Local) ExchangeData(inputs telemetry.ControlInputs) (telemetry.SimulatorState, error) {
	resp, err := b.client.SendAction(soap.ActionExchangeData, telemetry.EncodeControlInputs(inputs))
	if err != nil {
		return telemetry.SimulatorState{}, err
	}
	return stateFrom(resp)
}

// EnableRC restores the original RC controller.
func (b *Local) EnableRC() error {
	return b.command(soap.ActionEnableRC)
}

// DisableRC injects the bridge as the aircraft controller.
func (b *Local) DisableRC() error {
	return b.command(soap.ActionDisableRC)
}

// ResetAircraft resets the aircraft to its launch state.
func (b *Local) ResetAircraft() error {
	return b.command(soap.ActionResetAircraft)
}

func (b *Local) command(action string) error {
	resp, err := b.client.SendAction(action, "")
	if err != nil {
		return err
	}
	return commandFrom(resp)
}

// Statistics returns a snapshot of the request and error counters.
func (b *Local) Statistics() stats.Snapshot {
	return b.stats.Snapshot()
}

// Ready reports whether the connection pool is initialized and running.
func (b *Local) Ready() bool {
	return b.pool != nil && b.pool.Initialized()
}

// Close stops the pool worker and closes queued connections.
func (b *Local) Close() error {
	if b.pool == nil {
		return nil
	}
	return b.pool.Close()
}

// AsyncLocal talks to a simulator on the network through the context
// driven pool.
type AsyncLocal struct {
	client asyncSoapClient
	pool   *pool.AsyncPool
	stats  *stats.Engine
}

// NewAsyncLocal starts the connection pool under ctx and waits up to the
// configured init timeout for it to become ready.
func NewAsyncLocal(ctx context.Context, cfg Config, opts ...Option) (*AsyncLocal, error) {
	o := newOptions(opts)
	st := stats.New()

	p, err := pool.NewAsync(ctx, cfg.pool(), st, pool.WithLogger(o.logger), pool.WithMetrics(o.metrics))
	if err != nil {
		return nil, err
	}
	if err := p.EnsureInitialized(ctx, cfg.initTimeout()); err != nil {
		p.Close()
		return nil, err
	}

	client := transport.NewAsync(p, st,
		transport.WithMetrics(o.metrics),
		transport.WithRequestTimeout(cfg.RequestTimeout))

	return &AsyncLocal{client: client, pool: p, stats: st}, nil
}

// ExchangeData sends one control frame and decodes the telemetry reply.
func (b *AsyncLocal) ExchangeData(ctx context.Context, inputs telemetry.ControlInputs) (telemetry.SimulatorState, error) {
	resp, err := b.client.SendAction(ctx, soap.ActionExchangeData, telemetry.EncodeControlInputs(inputs))
	if err != nil {
		return telemetry.SimulatorState{}, err
	}
	return stateFrom(resp)
}

// EnableRC restores the original RC controller.
func (b *AsyncLocal) EnableRC(ctx context.Context) error {
	return b.command(ctx, soap.ActionEnableRC)
}

// DisableRC injects the bridge as the aircraft controller.
func (b *AsyncLocal) DisableRC(ctx context.Context) error {
	return b.command(ctx, soap.ActionDisableRC)
}

// ResetAircraft resets the aircraft to its launch state.
func (b *AsyncLocal) ResetAircraft(ctx context.Context) error {
	return b.command(ctx, soap.ActionResetAircraft)
}

func (b *AsyncLocal) command(ctx context.Context, action string) error {
	resp, err := b.client.SendAction(ctx, action, "")
	if err != nil {
		return err
	}
	return commandFrom(resp)
}

// Statistics returns a snapshot of the request and error counters.
func (b *AsyncLocal) Statistics() stats.Snapshot {
	return b.stats.Snapshot()
}

// Ready reports whether the connection pool is initialized and running.
func (b *AsyncLocal) Ready() bool {
	return b.pool != nil && b.pool.Initialized()
}

// Close cancels the pool worker and closes queued connections.
func (b *AsyncLocal) Close() error {
	if b.pool == nil {
		return nil
	}
	return b.pool.Close()
}
