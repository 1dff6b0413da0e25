// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package rflink

import (
	"log/slog"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:18083", cfg.SimulatorAddress)
	assert.Equal(t, 5*time.Millisecond, cfg.ConnectTimeout)
	assert.Equal(t, 1, cfg.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.InitTimeout)
	assert.Equal(t, ModeAsync, cfg.Mode)
	assert.Equal(t, "0.0.0.0:8080", cfg.ProxyAddress)
	assert.Empty(t, cfg.WSAddress)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestNewConfigOverrides(t *testing.T) {
	cfg, err := NewConfig(env.Options{Environment: map[string]string{
		"RFLINK_SIMULATOR_ADDRESS": "10.0.0.2:18083",
		"RFLINK_POOL_SIZE":         "4",
		"RFLINK_MODE":              "SYNC",
		"RFLINK_REQUEST_TIMEOUT":   "250ms",
		"RFLINK_LOG_LEVEL":         "debug",
	}})
	require.NoError(t, err)

	assert.Equal(t, ModeSync, cfg.Mode)
	b := cfg.Bridge()
	assert.Equal(t, "10.0.0.2:18083", b.Address)
	assert.Equal(t, 4, b.PoolSize)
	assert.Equal(t, 250*time.Millisecond, b.RequestTimeout)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestNewConfigInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"mode":       {"RFLINK_MODE": "threaded"},
		"log level":  {"RFLINK_LOG_LEVEL": "loud"},
		"log format": {"RFLINK_LOG_FORMAT": "xml"},
		"pool size":  {"RFLINK_POOL_SIZE": "many"},
	}
	for name, environ := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewConfig(env.Options{Environment: environ})
			assert.Error(t, err)
		})
	}
}
