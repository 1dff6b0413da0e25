// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Command rflink runs the tunnel proxy in front of a RealFlight Link
// simulator.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/absmach/rflink"
	"github.com/absmach/rflink/examples/simple"
	"github.com/absmach/rflink/pkg/bridge"
	"github.com/absmach/rflink/pkg/health"
	"github.com/absmach/rflink/pkg/metrics"
	"github.com/absmach/rflink/pkg/proxy"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const svcName = "rflink"

// localBridge is a bridge backed by a connection pool in this process.
type localBridge interface {
	bridge.AsyncBridge
	Ready() bool
	Close() error
}

type syncBridge struct {
	bridge.AsyncBridge
	local *bridge.Local
}

func (b syncBridge) Ready() bool  { return b.local.Ready() }
func (b syncBridge) Close() error { return b.local.Close() }

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := rflink.NewConfig(env.Options{})
	if err != nil {
		slog.Error(fmt.Sprintf("failed to load %s configuration: %s", svcName, err))
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	m := metrics.New(svcName, prometheus.DefaultRegisterer)

	b, err := newBridge(ctx, cfg, logger, m)
	if err != nil {
		logger.Error("failed to connect to simulator", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer b.Close()

	checker := health.NewChecker(time.Second)
	checker.Register("simulator_pool", health.Readiness(b.Ready))

	srv := proxy.New(proxy.Config{
		Address:   cfg.ProxyAddress,
		Logger:    logger,
		Metrics:   m,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}, simple.New(b, logger))

	g.Go(func() error {
		return srv.Listen(ctx)
	})

	if cfg.WSAddress != "" {
		ws := proxy.NewWebSocket(proxy.WebSocketConfig{
			Address:         cfg.WSAddress,
			Path:            cfg.WSPath,
			ShutdownTimeout: cfg.ShutdownTimeout,
			Logger:          logger,
		}, srv)
		g.Go(func() error {
			return ws.Listen(ctx)
		})
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	g.Go(func() error {
		return serveHTTP(ctx, "metrics", cfg.MetricsAddress, metricsMux, cfg.ShutdownTimeout, logger)
	})
	g.Go(func() error {
		return serveHTTP(ctx, "health", cfg.HealthAddress, checker.Handler(), cfg.ShutdownTimeout, logger)
	})

	// Signal handler
	g.Go(func() error {
		return StopSignalHandler(ctx, cancel, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service terminated with error: %s", svcName, err))
	} else {
		logger.Info(fmt.Sprintf("%s service stopped", svcName))
	}
}

func newBridge(ctx context.Context, cfg rflink.Config, logger *slog.Logger, m *metrics.Metrics) (localBridge, error) {
	opts := []bridge.Option{
		bridge.WithLogger(logger),
		bridge.WithMetrics(m),
	}

	if cfg.Mode == rflink.ModeSync {
		local, err := bridge.NewLocal(cfg.Bridge(), opts...)
		if err != nil {
			return nil, err
		}
		logger.Info("simulator pool ready", slog.String("mode", cfg.Mode), slog.String("address", cfg.SimulatorAddress))
		return syncBridge{AsyncBridge: bridge.Contextual(local), local: local}, nil
	}

	local, err := bridge.NewAsyncLocal(ctx, cfg.Bridge(), opts...)
	if err != nil {
		return nil, err
	}
	logger.Info("simulator pool ready", slog.String("mode", cfg.Mode), slog.String("address", cfg.SimulatorAddress))
	return local, nil
}

func setupLogger(cfg rflink.Config) *slog.Logger {
	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(slog.String("service", svcName))
}

func serveHTTP(ctx context.Context, name, addr string, h http.Handler, timeout time.Duration, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("starting %s server", name), slog.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s server: %w", name, err)
	}
}

func StopSignalHandler(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM, syscall.SIGABRT)
	select {
	case sig := <-c:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
		return nil
	case <-ctx.Done():
		return nil
	}
}
