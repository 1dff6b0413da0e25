// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package errors provides the error taxonomy shared by the rflink packages.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Common error types
var (
	// ErrInitialization indicates the connection pool could not be initialized.
	ErrInitialization = errors.New("initialization failed")

	// ErrFault indicates the simulator rejected a request or the exchange failed.
	ErrFault = errors.New("simulator fault")

	// ErrDecode indicates a telemetry document or tunnel payload could not be decoded.
	ErrDecode = errors.New("decode failed")

	// ErrConnectionClosed indicates the connection was closed.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrProtocolViolation indicates a protocol-level error.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrPoolClosed indicates the connection pool has been shut down.
	ErrPoolClosed = errors.New("connection pool is closed")
)

// InitError is returned when the connection pool fails to initialize or
// does not initialize in time.
type InitError struct {
	Reason  string        // Worker supplied failure reason, empty on timeout
	Timeout time.Duration // Wait that elapsed without an outcome
}

func (e *InitError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("Connection pool did not initialize. Waited for %s.", e.Timeout)
	}
	return "Connection pool initialization failed: " + e.Reason
}

// Is reports whether target is ErrInitialization.
func (e *InitError) Is(target error) bool {
	return target == ErrInitialization
}

// FaultError carries the simulator supplied fault text or a description of
// the transport failure that aborted the request.
type FaultError struct {
	Message string
	Err     error
}

func (e *FaultError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *FaultError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFault.
func (e *FaultError) Is(target error) bool {
	return target == ErrFault
}

// Fault creates a FaultError with the given message.
func Fault(message string) error {
	return &FaultError{Message: message}
}

// FaultFrom converts a transport failure into a FaultError.
func FaultFrom(err error) error {
	if err == nil {
		return nil
	}
	return &FaultError{Message: err.Error(), Err: err}
}

// ParseError names the field that made a decode fail.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("missing or invalid field %s", e.Field)
	}
	return fmt.Sprintf("invalid field %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *ParseError) Is(target error) bool {
	return target == ErrDecode
}

// OpError wraps an error with the operation and peer it happened on.
type OpError struct {
	Op        string // Operation that failed
	SessionID string // Session identifier, empty on the client side
	Addr      string // Peer address
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s [%s] %s: %v", e.Op, e.SessionID, e.Addr, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}

// New creates a new OpError.
func New(op, sessionID, addr string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{
		Op:        op,
		SessionID: sessionID,
		Addr:      addr,
		Err:       err,
	}
}

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
