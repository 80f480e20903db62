//go:build !linux

package queuetransport

import (
	"context"
	"fmt"
)

// MQueue stub for hosts without POSIX message queues, mirroring go-ublk's
// iouring_stub.go / kernelopcode_stub.go split between a real Linux
// implementation and a compile-clean stub elsewhere.
type MQueue struct{}

// NewMQueue always fails on non-Linux hosts.
func NewMQueue(name string, msgSize uint32) (*MQueue, error) {
	return nil, fmt.Errorf("queuetransport: POSIX message queues not supported on this platform")
}

func (q *MQueue) Put(data []byte) error { return fmt.Errorf("queuetransport: not implemented") }

func (q *MQueue) Get(ctx context.Context, buf []byte, mode Mode, timeoutMs uint32) (int, error) {
	return 0, fmt.Errorf("queuetransport: not implemented")
}

func (q *MQueue) Close() error { return nil }
