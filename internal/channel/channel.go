// Package channel implements the transport-level Channel abstraction: a
// single byte pipe to a shell, reachable over ssh, telnet, a local
// subprocess, or the parent session's own terminal (§4.4). TerminalCore
// drives one Channel at a time; everything above this layer is
// protocol-agnostic.
package channel

import (
	"errors"
	"time"
)

// Status reports what happened on the last recv/send attempt, distinct
// from an error: a channel can be perfectly healthy and simply have
// nothing to say yet.
type Status int

const (
	StatusOK Status = iota
	StatusNotReady
	StatusClosed
)

var ErrClosed = errors.New("channel: closed")

// Channel is the minimal contract every transport variant satisfies. It
// knows nothing about prompts, expect patterns, or login sequencing -
// that belongs to the terminal core.
type Channel interface {
	// Send writes text verbatim; callers are responsible for any trailing
	// newline the remote shell expects.
	Send(text string) error

	// Recv returns whatever bytes have arrived within wait without
	// blocking past it. An empty string with StatusNotReady is not an
	// error - it means nothing arrived in time.
	Recv(wait time.Duration) (string, Status, error)

	// ResizePTY asks the transport to resize its pseudo-terminal natively.
	// Variants that cannot return ErrNotSupported and let the caller fall
	// back to a software resize command from the OS adapter.
	ResizePTY(cols, rows int) error

	// SetKeepalive enables periodic keepalive traffic at the given
	// interval, or disables it when interval is zero.
	SetKeepalive(interval time.Duration) error

	// IsActive reports whether the underlying transport is still usable.
	IsActive() bool

	// Close releases the underlying transport. Idempotent.
	Close() error
}

// ErrNotSupported is returned by capability-gated Channel methods (native
// PTY resize, native keepalive) on transports that have no such facility.
var ErrNotSupported = errors.New("channel: not supported by this transport")
