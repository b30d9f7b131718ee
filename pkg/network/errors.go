package network

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrClosed        = errors.New("connection closed")
	ErrNotConnected  = errors.New("not connected")
	ErrNoEndpoints   = errors.New("no endpoints configured")
	ErrDuplicateTag  = errors.New("tag already pending")
	ErrLoginRejected = errors.New("login rejected by server")
)

// TransportError is a socket-level failure: dial, write, or read. It is
// handled by the reconnect path and never surfaces from Send callers.
type TransportError struct {
	Op       string
	Endpoint string
	Attempt  int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s %s (attempt %d): %v", e.Op, e.Endpoint, e.Attempt, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HandshakeError is a fatal failure of the current handshake attempt:
// key agreement, HMAC validation, or a malformed control message.
type HandshakeError struct {
	Stage string
	Err   error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake %s: %v", e.Stage, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// TimeoutError rejects a single correlated request whose deadline
// elapsed. It carries the tag so callers can diagnose without access to
// supervisor internals.
type TimeoutError struct {
	Tag         string
	Description string
	After       time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %q (%s) timed out after %v", e.Tag, e.Description, e.After)
}
