// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package bridge is the façade controllers program against.
//
// Four operations are offered, each mapped to one simulator action:
//
//	ExchangeData   ExchangeData                     control inputs in, telemetry out
//	EnableRC       RestoreOriginalControllerDevice  hand control back to the RC transmitter
//	DisableRC      InjectUAVControllerInterface     take control from the RC transmitter
//	ResetAircraft  ResetAircraft                    reset the aircraft to its launch state
//
// A reply with status 200 is a success. Any other status is turned into a
// FaultError carrying the text of the reply's detail element. Nothing is
// retried: each call is exactly one exchange.
//
// Two concurrency models are provided behind the Bridge and AsyncBridge
// interfaces. Local runs on the goroutine driven Pool and blocks its
// caller; AsyncLocal runs on the context driven AsyncPool and takes a
// context on every call. The tunnel Client is a third AsyncBridge that
// forwards calls to a remote proxy. Contextual and Blocking adapt one model
// to the other.
package bridge
