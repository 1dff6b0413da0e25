// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tunnel

import (
	"bufio"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Conn carries whole payloads in both directions.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(payload []byte) error
	SetDeadline(t time.Time) error
	RemoteAddr() net.Addr
	// Traffic returns the bytes read and written so far.
	Traffic() (in, out int64)
	Close() error
}

type counter struct {
	n atomic.Int64
}

// StreamConn frames payloads over a byte stream.
type StreamConn struct {
	conn    net.Conn
	r       *bufio.Reader
	in, out counter
}

var _ Conn = (*StreamConn)(nil)

// NewStreamConn wraps a TCP connection.
func NewStreamConn(conn net.Conn) *StreamConn {
	c := &StreamConn{conn: conn}
	c.r = bufio.NewReader(countingReader{r: conn, c: &c.in})
	return c
}

type countingReader struct {
	r io.Reader
	c *counter
}

func (cr countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.c.n.Add(int64(n))
	return n, err
}

// ReadMessage reads one length-prefixed frame.
func (c *StreamConn) ReadMessage() ([]byte, error) {
	return ReadFrame(c.r)
}

// WriteMessage writes payload as one length-prefixed frame.
func (c *StreamConn) WriteMessage(payload []byte) error {
	if err := WriteFrame(c.conn, payload); err != nil {
		return err
	}
	c.out.n.Add(int64(headerSize + len(payload)))
	return nil
}

// SetDeadline sets the read and write deadline of the underlying connection.
func (c *StreamConn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// RemoteAddr returns the peer address.
func (c *StreamConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Traffic returns the bytes received and sent, framing included.
func (c *StreamConn) Traffic() (int64, int64) {
	return c.in.n.Load(), c.out.n.Load()
}

// Close closes the underlying connection.
func (c *StreamConn) Close() error {
	return c.conn.Close()
}

// WebSocketConn carries one payload per binary WebSocket message.
type WebSocketConn struct {
	ws      *websocket.Conn
	in, out counter
}

var _ Conn = (*WebSocketConn)(nil)

// NewWebSocketConn wraps an established WebSocket connection.
func NewWebSocketConn(ws *websocket.Conn) *WebSocketConn {
	ws.SetReadLimit(MaxFrameSize)
	return &WebSocketConn{ws: ws}
}

// ReadMessage returns the next binary message, skipping text messages. A
// normal close is reported as io.EOF.
func (c *WebSocketConn) ReadMessage() ([]byte, error) {
	for {
		typ, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		c.in.n.Add(int64(len(payload)))
		if typ == websocket.BinaryMessage {
			return payload, nil
		}
	}
}

// WriteMessage sends payload as one binary message.
func (c *WebSocketConn) WriteMessage(payload []byte) error {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		return err
	}
	c.out.n.Add(int64(len(payload)))
	return nil
}

// SetDeadline sets both the read and write deadlines.
func (c *WebSocketConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

// RemoteAddr returns the peer address.
func (c *WebSocketConn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

// Traffic returns the payload bytes received and sent.
func (c *WebSocketConn) Traffic() (int64, int64) {
	return c.in.n.Load(), c.out.n.Load()
}

// Close sends a close frame and closes the underlying connection.
func (c *WebSocketConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.ws.Close()
}
