// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package rflink holds the process configuration of the rflink proxy.
package rflink

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/absmach/rflink/pkg/bridge"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix is the prefix of every environment variable read by NewConfig.
const EnvPrefix = "RFLINK_"

// Pool modes.
const (
	ModeAsync = "async"
	ModeSync  = "sync"
)

// Config is the proxy process configuration.
type Config struct {
	SimulatorAddress string        `env:"SIMULATOR_ADDRESS" envDefault:"127.0.0.1:18083"`
	ConnectTimeout   time.Duration `env:"CONNECT_TIMEOUT"   envDefault:"5ms"`
	PoolSize         int           `env:"POOL_SIZE"         envDefault:"1"`
	InitTimeout      time.Duration `env:"INIT_TIMEOUT"      envDefault:"5s"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT"   envDefault:"0s"`
	Mode             string        `env:"MODE"              envDefault:"async"`

	ProxyAddress   string  `env:"PROXY_ADDRESS"   envDefault:"0.0.0.0:8080"`
	WSAddress      string  `env:"WS_ADDRESS"      envDefault:""`
	WSPath         string  `env:"WS_PATH"         envDefault:"/tunnel"`
	MetricsAddress string  `env:"METRICS_ADDRESS" envDefault:":9090"`
	HealthAddress  string  `env:"HEALTH_ADDRESS"  envDefault:":8081"`
	RateLimit      float64 `env:"RATE_LIMIT"      envDefault:"0"`
	RateBurst      int     `env:"RATE_BURST"      envDefault:"10"`

	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT"       envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// NewConfig parses the configuration from the environment. An empty
// opts.Prefix defaults to EnvPrefix.
func NewConfig(opts env.Options) (Config, error) {
	if opts.Prefix == "" {
		opts.Prefix = EnvPrefix
	}
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Config{}, err
	}

	c.Mode = strings.ToLower(c.Mode)
	if c.Mode != ModeAsync && c.Mode != ModeSync {
		return Config{}, fmt.Errorf("invalid mode %q: expected %s or %s", c.Mode, ModeAsync, ModeSync)
	}
	if _, err := c.Level(); err != nil {
		return Config{}, err
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return Config{}, fmt.Errorf("invalid log format %q", c.LogFormat)
	}

	return c, nil
}

// Bridge returns the local bridge configuration.
func (c Config) Bridge() bridge.Config {
	return bridge.Config{
		Address:        c.SimulatorAddress,
		ConnectTimeout: c.ConnectTimeout,
		PoolSize:       c.PoolSize,
		InitTimeout:    c.InitTimeout,
		RequestTimeout: c.RequestTimeout,
	}
}

// Level returns the configured log level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
