// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/absmach/rflink/pkg/bridge"
	rferrors "github.com/absmach/rflink/pkg/errors"
	"github.com/absmach/rflink/pkg/metrics"
	"github.com/absmach/rflink/pkg/ratelimit"
	"github.com/absmach/rflink/pkg/tunnel"
	"github.com/google/uuid"
	"github.com/jpillora/sizestr"
)

// Config holds the proxy server configuration.
type Config struct {
	// Address is the listen address (host:port)
	Address string

	// Logger for server events
	Logger *slog.Logger

	// Metrics is optional Prometheus instrumentation
	Metrics *metrics.Metrics

	// RateLimit caps requests per second for each client. Zero disables
	// the limit.
	RateLimit float64

	// RateBurst is the number of requests allowed above RateLimit in a
	// burst.
	RateBurst int
}

// Server accepts tunnel clients one at a time and dispatches their requests
// to a bridge.
type Server struct {
	config Config
	bridge bridge.AsyncBridge
	// session is held for the lifetime of a client connection on any
	// transport.
	session sync.Mutex
}

// New creates a new proxy server in front of b.
func New(cfg Config, b bridge.AsyncBridge) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Server{
		config: cfg,
		bridge: b,
	}
}

// Listen binds the configured address and serves until ctx is cancelled.
func (s *Server) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return rferrors.Wrap(err, "failed to listen on "+s.config.Address)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts clients from ln serially until ctx is cancelled. It takes
// ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.config.Logger.Info("proxy server started", slog.String("address", ln.Addr().String()))

	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.config.Logger.Info("proxy server stopped")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.config.Logger.Error("failed to accept connection", slog.String("error", err.Error()))
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if tcp, ok := conn.(*net.TCPConn); ok {
			tcp.SetNoDelay(true)
		}

		s.session.Lock()
		s.serveConn(ctx, tunnel.NewStreamConn(conn), "tcp")
		s.session.Unlock()
	}
}

// serveConn runs the request loop for one client until it disconnects or
// ctx is cancelled.
func (s *Server) serveConn(ctx context.Context, conn tunnel.Conn, transport string) {
	sessionID := uuid.New().String()
	remote := conn.RemoteAddr().String()
	logger := s.config.Logger.With(
		slog.String("session", sessionID),
		slog.String("remote", remote),
		slog.String("transport", transport))

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()
	defer conn.Close()

	logger.Info("client connected")
	start := time.Now()
	limiter := ratelimit.NewTokenBucket(s.config.RateLimit, s.config.RateBurst)

	err := s.config.Metrics.ObserveConnection(transport, func() error {
		for {
			payload, err := conn.ReadMessage()
			if err != nil {
				return rferrors.New("read", sessionID, remote, err)
			}

			req, err := tunnel.UnmarshalRequest(payload)
			if err != nil {
				s.config.Metrics.FrameMalformed(transport)
				logger.Warn("skipping malformed request", slog.String("error", err.Error()))
				continue
			}

			resp := tunnel.Response{Status: tunnel.StatusError}
			if err := limiter.Wait(); err != nil {
				logger.Warn("request rejected",
					slog.String("op", req.Op.String()),
					slog.String("error", err.Error()))
			} else {
				resp = s.handle(context.WithoutCancel(ctx), logger, req)
			}
			if err := conn.WriteMessage(tunnel.MarshalResponse(resp)); err != nil {
				return rferrors.New("write", sessionID, remote, err)
			}
		}
	})
	if err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
		logger.Warn("connection error", slog.String("error", err.Error()))
	}

	in, out := conn.Traffic()
	s.config.Metrics.AddBytes(transport, in, out)
	logger.Info("client disconnected",
		slog.String("duration", time.Since(start).Round(time.Millisecond).String()),
		slog.String("received", sizestr.ToString(in)),
		slog.String("sent", sizestr.ToString(out)))
}

// handle dispatches one request to the bridge.
func (s *Server) handle(ctx context.Context, logger *slog.Logger, req tunnel.Request) tunnel.Response {
	var resp tunnel.Response
	err := s.config.Metrics.ObserveRequest(req.Op.String(), func() error {
		switch req.Op {
		case tunnel.OpExchangeData:
			if req.Inputs == nil {
				return errors.New("no control inputs in request")
			}
			state, err := s.bridge.ExchangeData(ctx, *req.Inputs)
			if err != nil {
				return err
			}
			resp.State = &state
			return nil
		case tunnel.OpEnableRC:
			return s.bridge.EnableRC(ctx)
		case tunnel.OpDisableRC:
			return s.bridge.DisableRC(ctx)
		case tunnel.OpResetAircraft:
			return s.bridge.ResetAircraft(ctx)
		default:
			return fmt.Errorf("unsupported operation %s", req.Op)
		}
	})
	if err != nil {
		logger.Error("bridge call failed",
			slog.String("op", req.Op.String()),
			slog.String("error", err.Error()))
		return tunnel.Response{Status: tunnel.StatusError}
	}

	resp.Status = tunnel.StatusSuccess
	return resp
}
