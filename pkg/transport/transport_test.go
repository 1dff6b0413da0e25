// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/absmach/rflink/internal/simtest"
	rferrors "github.com/absmach/rflink/pkg/errors"
	"github.com/absmach/rflink/pkg/metrics"
	"github.com/absmach/rflink/pkg/pool"
	"github.com/absmach/rflink/pkg/soap"
	"github.com/absmach/rflink/pkg/stats"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, addr string, st *stats.Engine, opts ...Option) *Client {
	t.Helper()
	p, err := pool.New(pool.Config{Address: addr, ConnectTimeout: 200 * time.Millisecond, Size: 2}, st)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	require.NoError(t, p.EnsureInitialized(time.Second))
	return New(p, st, opts...)
}

func TestSendAction(t *testing.T) {
	sim := simtest.Start(t, simtest.Respond(200, "<ok>1</ok>"))
	st := stats.New()
	m := metrics.New("test", nil)
	c := newClient(t, sim.Addr(), st, WithMetrics(m))

	resp, err := c.SendAction(soap.ActionResetAircraft, "")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "<ok>1</ok>", resp.Body)

	reqs := sim.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, soap.ActionResetAircraft, reqs[0].Action)
	assert.Equal(t, soap.EncodeEnvelope(soap.ActionResetAircraft, ""), reqs[0].Envelope)

	s := st.Snapshot()
	assert.Equal(t, uint32(1), s.RequestCount)
	assert.Equal(t, uint32(0), s.ErrorCount)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SOAPRequests.WithLabelValues(soap.ActionResetAircraft, "success")))
}

func TestSendActionFaultStatus(t *testing.T) {
	sim := simtest.Start(t, simtest.Respond(500, simtest.FaultData))
	c := newClient(t, sim.Addr(), nil)

	resp, err := c.SendAction(soap.ActionExchangeData, "")
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "RealFlight Link controller has not been instantiated", resp.FaultMessage())
}

func TestSendActionTransportError(t *testing.T) {
	// A peer that accepts and hangs up without replying.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				buf := make([]byte, 4096)
				conn.Read(buf)
				conn.Close()
			}()
		}
	}()

	st := stats.New()
	c := newClient(t, ln.Addr().String(), st)

	_, err = c.SendAction(soap.ActionResetAircraft, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, rferrors.ErrFault))
	assert.Equal(t, uint32(1), st.Snapshot().ErrorCount)
}

func TestSendActionRequestTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	hold := make(chan struct{})
	defer close(hold)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				<-hold
				conn.Close()
			}()
		}
	}()

	c := newClient(t, ln.Addr().String(), nil, WithRequestTimeout(30*time.Millisecond))

	start := time.Now()
	_, err = c.SendAction(soap.ActionResetAircraft, "")
	assert.ErrorIs(t, err, rferrors.ErrFault)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAsyncSendAction(t *testing.T) {
	sim := simtest.Start(t, simtest.Respond(200, simtest.ReturnData))
	st := stats.New()
	ctx := context.Background()

	p, err := pool.NewAsync(ctx, pool.Config{Address: sim.Addr(), ConnectTimeout: 200 * time.Millisecond, Size: 1}, st)
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.EnsureInitialized(ctx, time.Second))

	c := NewAsync(p, st)
	for i := 0; i < 5; i++ {
		resp, err := c.SendAction(ctx, soap.ActionExchangeData, "<pControlInputs></pControlInputs>")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, simtest.ReturnData, resp.Body)
	}
	assert.Equal(t, uint32(5), st.Snapshot().RequestCount)
	assert.Len(t, sim.Requests(), 5)
}

func TestAsyncSendActionCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	hold := make(chan struct{})
	defer close(hold)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				<-hold
				conn.Close()
			}()
		}
	}()

	p, err := pool.NewAsync(context.Background(), pool.Config{Address: ln.Addr().String(), ConnectTimeout: 200 * time.Millisecond}, nil)
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.EnsureInitialized(context.Background(), time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err = NewAsync(p, nil).SendAction(ctx, soap.ActionResetAircraft, "")
	assert.ErrorIs(t, err, rferrors.ErrFault)
	assert.ErrorIs(t, err, context.Canceled)
}
