// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package proxy serves the tunnel protocol in front of a bridge, so a
// controller on another machine can drive a simulator it cannot reach.
//
// # Architecture
//
//	┌──────────────┐           ┌─────────┐          ┌───────────┐
//	│ tunnel.Client│ ←─frames─→│  Server │ ←─call─→ │  Bridge   │ ←─SOAP─→ Simulator
//	└──────────────┘           └─────────┘          └───────────┘
//
// # Connection Flow
//
//  1. Server accepts one client; further clients wait in the listen backlog
//  2. Each frame is decoded into a tunnel.Request
//  3. The request is dispatched to the bridge and the reply framed back
//  4. The next frame is read only after the reply was written
//  5. On disconnect the server logs the traffic and accepts the next client
//
// A frame that cannot be decoded is logged and skipped without a reply and
// the connection stays open. An ExchangeData request without control inputs
// is answered with an error status and never reaches the bridge. When
// Config.RateLimit is set, requests above the client's budget get the same
// treatment.
//
// # WebSocket
//
// WebSocketServer offers the same exchange over WebSocket, one payload per
// binary message. Only one controller may be connected at a time across
// both transports; a second WebSocket client is refused with 503.
//
// # Graceful Shutdown
//
// Cancelling the context closes the listener and the active connection. A
// bridge call already in flight runs to completion so the simulator never
// sees a half-sent request.
package proxy
