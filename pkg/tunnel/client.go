// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tunnel

import (
	"context"
	"net"
	"sync"
	"time"

	rferrors "github.com/absmach/rflink/pkg/errors"
	"github.com/absmach/rflink/pkg/telemetry"
	"github.com/gorilla/websocket"
)

// DefaultConnectTimeout bounds Dial when no timeout is given.
const DefaultConnectTimeout = 5 * time.Second

// Client drives a bridge on a remote proxy. Calls are serialized: each one
// is a single request followed by its response on the shared connection.
type Client struct {
	mu     sync.Mutex
	conn   Conn
	addr   string
	broken bool
}

// Dial connects to a proxy over TCP with Nagle's algorithm disabled.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, rferrors.New("dial", "", addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(true); err != nil {
			conn.Close()
			return nil, rferrors.New("dial", "", addr, err)
		}
	}
	return NewClient(NewStreamConn(conn)), nil
}

// DialWebSocket connects to a proxy's WebSocket endpoint, e.g.
// ws://host:8082/tunnel.
func DialWebSocket(ctx context.Context, url string) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, rferrors.New("dial", "", url, err)
	}
	return NewClient(NewWebSocketConn(ws)), nil
}

// NewClient creates a Client over an established connection.
func NewClient(conn Conn) *Client {
	return &Client{conn: conn, addr: conn.RemoteAddr().String()}
}

// ExchangeData sends inputs to the remote bridge and returns the telemetry
// sample it replied with.
func (c *Client) ExchangeData(ctx context.Context, inputs telemetry.ControlInputs) (telemetry.SimulatorState, error) {
	resp, err := c.roundTrip(ctx, Request{Op: OpExchangeData, Inputs: &inputs})
	if err != nil {
		return telemetry.SimulatorState{}, err
	}
	if resp.Status != StatusSuccess {
		return telemetry.SimulatorState{}, rferrors.Fault("remote bridge failed to exchange data")
	}
	if resp.State == nil {
		return telemetry.SimulatorState{}, rferrors.Fault("No payload in response")
	}
	return *resp.State, nil
}

// EnableRC asks the remote bridge to hand control back to the RC transmitter.
func (c *Client) EnableRC(ctx context.Context) error {
	return c.command(ctx, OpEnableRC)
}

// DisableRC asks the remote bridge to take control of the aircraft.
func (c *Client) DisableRC(ctx context.Context) error {
	return c.command(ctx, OpDisableRC)
}

// ResetAircraft asks the remote bridge to reset the aircraft.
func (c *Client) ResetAircraft(ctx context.Context) error {
	return c.command(ctx, OpResetAircraft)
}

func (c *Client) command(ctx context.Context, op Operation) error {
	resp, err := c.roundTrip(ctx, Request{Op: op})
	if err != nil {
		return err
	}
	if resp.Status != StatusSuccess {
		return rferrors.Fault("remote bridge failed to run " + op.String())
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req Request) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken {
		return Response{}, rferrors.New(req.Op.String(), "", c.addr, rferrors.ErrConnectionClosed)
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Response{}, c.fail(ctx, req.Op, err)
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := c.conn.WriteMessage(MarshalRequest(req)); err != nil {
		return Response{}, c.fail(ctx, req.Op, err)
	}
	payload, err := c.conn.ReadMessage()
	if err != nil {
		return Response{}, c.fail(ctx, req.Op, err)
	}
	resp, err := UnmarshalResponse(payload)
	if err != nil {
		return Response{}, rferrors.New(req.Op.String(), "", c.addr, err)
	}
	return resp, nil
}

// fail marks the client unusable: after a partial exchange the stream can
// no longer be matched to requests.
func (c *Client) fail(ctx context.Context, op Operation, err error) error {
	c.broken = true
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	} else if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		err = context.DeadlineExceeded
	}
	return rferrors.New(op.String(), "", c.addr, err)
}

// Close closes the connection to the proxy.
func (c *Client) Close() error {
	return c.conn.Close()
}
