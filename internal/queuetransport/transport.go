// Package queuetransport implements the two interchangeable queue
// backings named in spec.md §6: a UDP-datagram-per-queue transport and a
// POSIX message-queue transport. Both satisfy the same narrow Queue
// interface, selected at construction time rather than at build-tag time
// (a Go process can trivially link both), the way go-ublk's
// internal/uring.Ring interface has one production implementation chosen
// at construction and a stub for unsupported platforms.
package queuetransport

import (
	"context"
	"errors"
)

// BasePort is the base UDP port for datagram-backed queues; queue id N
// binds to 127.0.0.1:BasePort+N (spec.md §6).
const BasePort = 43000

var (
	// ErrFull is returned by Put when the backing transport cannot accept
	// another message without blocking.
	ErrFull = errors.New("queuetransport: queue full")
	// ErrEmpty is returned by a CHECK-mode Get when no message is ready.
	ErrEmpty = errors.New("queuetransport: queue empty")
	// ErrTimeout is returned by a timed Get whose deadline passed.
	ErrTimeout = errors.New("queuetransport: timed out waiting for message")
	// ErrInvalidSize is returned by Get when the received message's
	// length does not match the caller's buffer size (spec.md §4.3).
	ErrInvalidSize = errors.New("queuetransport: message size mismatch")
)

// Mode selects Get's blocking behavior (spec.md §4.3's PEND/CHECK/timeout
// three modes).
type Mode int

const (
	// ModePend blocks until a message is available.
	ModePend Mode = iota
	// ModeCheck returns ErrEmpty immediately if no message is ready.
	ModeCheck
	// ModeTimeout blocks for up to a bounded duration, then ErrTimeout.
	ModeTimeout
)

// Queue is the narrow interface both backings satisfy.
type Queue interface {
	// Put is non-blocking: it returns ErrFull if the backing transport
	// cannot accept the message right now. len(data) must equal the
	// queue's configured message size; callers are expected to have
	// already validated that before calling Put.
	Put(data []byte) error

	// Get reads one message into buf, per mode:
	//   ModePend:    blocks until a message arrives or ctx is cancelled.
	//   ModeCheck:   returns ErrEmpty immediately if none is ready.
	//   ModeTimeout: blocks until timeoutMs elapses, then ErrTimeout.
	// Returns ErrInvalidSize (with n=0) if the received message's length
	// does not equal len(buf).
	Get(ctx context.Context, buf []byte, mode Mode, timeoutMs uint32) (n int, err error)

	// Close releases the transport's host resources.
	Close() error
}
