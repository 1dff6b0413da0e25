// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package tunnel implements the request/response protocol that lets a
// remote machine drive a bridge through a proxy running next to the
// simulator.
//
// # Framing
//
// On a TCP stream every message is a frame:
//
//	+----------------+------------------+
//	| length (4, BE) | payload (length) |
//	+----------------+------------------+
//
// Frames larger than MaxFrameSize are a protocol violation and end the
// connection. Over WebSocket each binary message carries one payload and no
// length prefix.
//
// # Payload
//
// Payloads use the protobuf wire format, written and read with protowire so
// no generated code is needed:
//
//	Request  { 1: op (varint), 2: inputs (message) }
//	Response { 1: status (varint), 2: state (message) }
//	Inputs   { 1: channels (packed fixed32) }
//
// The state message has one field per telemetry value, numbered by the
// wire tag on telemetry.SimulatorState. Zero values are omitted and unknown
// fields are skipped, so either side may grow new fields.
//
// # Exchange
//
// The protocol is strictly one request, one response. A client must read
// the response before sending its next request, and the proxy completes one
// request before reading the next.
package tunnel
