// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package simtest provides a fake RealFlight Link simulator for tests.
package simtest

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/absmach/rflink/pkg/soap"
)

var (
	// ReturnData is a successful ExchangeData reply body.
	//
	//go:embed testdata/return-data-200.xml
	ReturnData string

	// FaultData is the reply body sent while the simulator has no
	// controller attached.
	//
	//go:embed testdata/return-data-500.xml
	FaultData string
)

// Request is one request received by the fake simulator.
type Request struct {
	Action   string
	Envelope string
}

// HandlerFunc computes the status and body of the reply to req.
type HandlerFunc func(req Request) (int, string)

// Respond always replies with code and body.
func Respond(code int, body string) HandlerFunc {
	return func(Request) (int, string) {
		return code, body
	}
}

// Response renders a reply the way the simulator's gSOAP server does.
func Response(code int, body string) string {
	return fmt.Sprintf("HTTP/1.1 %d OK\r\nServer: gSOAP/2.7\r\nContent-Type: text/xml; charset=utf-8\r\n"+
		"Content-Length: %d\r\nConnection: close\r\n\r\n%s", code, len(body), body)
}

// Server accepts one request per connection and closes it after replying.
type Server struct {
	ln      net.Listener
	handler HandlerFunc
	wg      sync.WaitGroup

	mu       sync.Mutex
	requests []Request
}

// Start listens on a loopback port. The server stops when the test ends.
func Start(t testing.TB, h HandlerFunc) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &Server{ln: ln, handler: h}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)

	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Close stops the server and waits for in-flight connections.
func (s *Server) Close() {
	s.ln.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	req, err := readRequest(bufio.NewReader(conn))
	if err != nil {
		// Pool connections that are closed unused end up here.
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	code, body := s.handler(req)
	io.WriteString(conn, Response(code, body))
}

func readRequest(r *bufio.Reader) (Request, error) {
	var req Request
	if _, err := r.ReadString('\n'); err != nil {
		return req, err
	}

	length := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return req, err
		}
		if strings.TrimRight(line, "\r\n") == "" {
			break
		}
		if n, ok := soap.ParseContentLength(line); ok {
			length = n
		}
		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(name, "Soapaction") {
			req.Action = strings.Trim(strings.TrimSpace(value), "'")
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return req, err
	}
	req.Envelope = string(body)
	return req, nil
}
