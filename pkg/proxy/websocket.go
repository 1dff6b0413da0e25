// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/absmach/rflink/pkg/tunnel"
	"github.com/gorilla/websocket"
)

// DefaultWebSocketPath is where the tunnel endpoint is mounted.
const DefaultWebSocketPath = "/tunnel"

// WebSocketConfig holds configuration for the WebSocket endpoint.
type WebSocketConfig struct {
	Address         string
	Path            string
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// WebSocketServer serves the tunnel protocol over WebSocket, sharing the
// bridge and the one-controller limit of a Server.
type WebSocketServer struct {
	server   *http.Server
	proxy    *Server
	upgrader websocket.Upgrader
	timeout  time.Duration
	logger   *slog.Logger
}

var _ http.Handler = (*WebSocketServer)(nil)

// NewWebSocket creates a WebSocket endpoint in front of s.
func NewWebSocket(cfg WebSocketConfig, s *Server) *WebSocketServer {
	if cfg.Logger == nil {
		cfg.Logger = s.config.Logger
	}
	if cfg.Path == "" {
		cfg.Path = DefaultWebSocketPath
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	ws := &WebSocketServer{
		proxy: s,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		timeout: cfg.ShutdownTimeout,
		logger:  cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, ws)
	ws.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws
}

// ServeHTTP upgrades the request and runs the tunnel session.
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !ws.proxy.session.TryLock() {
		ws.logger.Warn("refusing WebSocket client, another controller is connected",
			slog.String("remote", r.RemoteAddr))
		http.Error(w, "another controller is connected", http.StatusServiceUnavailable)
		return
	}
	defer ws.proxy.session.Unlock()

	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Error("failed to upgrade client connection",
			slog.String("remote", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}

	ws.proxy.serveConn(r.Context(), tunnel.NewWebSocketConn(conn), "ws")
}

// Listen starts the WebSocket server and blocks until ctx is cancelled.
func (ws *WebSocketServer) Listen(ctx context.Context) error {
	ws.server.BaseContext = func(net.Listener) context.Context {
		return ctx
	}
	ws.logger.Info("WebSocket server started", slog.String("address", ws.server.Addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- ws.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		ws.logger.Info("shutdown signal received, closing WebSocket server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ws.timeout)
		defer cancel()

		if err := ws.server.Shutdown(shutdownCtx); err != nil {
			ws.logger.Error("error during shutdown", slog.String("error", err.Error()))
			return err
		}

		ws.logger.Info("WebSocket server shutdown complete")
		return nil

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
