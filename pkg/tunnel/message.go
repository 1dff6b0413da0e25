// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tunnel

import (
	"fmt"

	"github.com/absmach/rflink/pkg/telemetry"
)

// Operation selects the bridge call a request performs.
type Operation uint8

const (
	OpExchangeData Operation = iota
	OpEnableRC
	OpDisableRC
	OpResetAircraft
)

func (op Operation) String() string {
	switch op {
	case OpExchangeData:
		return "ExchangeData"
	case OpEnableRC:
		return "EnableRC"
	case OpDisableRC:
		return "DisableRC"
	case OpResetAircraft:
		return "ResetAircraft"
	default:
		return fmt.Sprintf("Operation(%d)", uint8(op))
	}
}

func (op Operation) valid() bool {
	return op <= OpResetAircraft
}

// Status is the outcome reported by the proxy.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusError:
		return "Error"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Request is sent by the remote client. Inputs is only set for
// OpExchangeData.
type Request struct {
	Op     Operation
	Inputs *telemetry.ControlInputs
}

// Response is sent by the proxy. State is only set for a successful
// OpExchangeData.
type Response struct {
	Status Status
	State  *telemetry.SimulatorState
}
