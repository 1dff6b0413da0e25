// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"

	"github.com/absmach/rflink/pkg/telemetry"
)

// Contextual exposes a blocking Bridge as an AsyncBridge. The context is
// only checked before the call starts; a started exchange runs to
// completion.
func Contextual(b Bridge) AsyncBridge {
	return contextual{b: b}
}

type contextual struct {
	b Bridge
}

func (c contextual) ExchangeData(ctx context.Context, inputs telemetry.ControlInputs) (telemetry.SimulatorState, error) {
	if err := ctx.Err(); err != nil {
		return telemetry.SimulatorState{}, err
	}
	return c.b.ExchangeData(inputs)
}

func (c contextual) EnableRC(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.b.EnableRC()
}

func (c contextual) DisableRC(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.b.DisableRC()
}

func (c contextual) ResetAircraft(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.b.ResetAircraft()
}

// Blocking exposes an AsyncBridge as a blocking Bridge.
func Blocking(b AsyncBridge) Bridge {
	return blocking{b: b}
}

type blocking struct {
	b AsyncBridge
}

func (b blocking) ExchangeData(inputs telemetry.ControlInputs) (telemetry.SimulatorState, error) {
	return b.b.ExchangeData(context.Background(), inputs)
}

func (b blocking) EnableRC() error {
	return b.b.EnableRC(context.Background())
}

func (b blocking) DisableRC() error {
	return b.b.DisableRC(context.Background())
}

func (b blocking) ResetAircraft() error {
	return b.b.ResetAircraft(context.Background())
}
