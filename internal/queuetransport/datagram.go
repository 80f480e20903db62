package queuetransport

import (
	"context"
	"fmt"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/behrlich/osal/internal/oslog"
	"github.com/behrlich/osal/internal/oswait"
)

// pollInterval bounds how often a pending/timed Get re-checks ctx
// cancellation between SO_RCVTIMEO wakeups.
const pollInterval = 100 * time.Millisecond

// Datagram is the UDP-socket-per-queue backing of spec.md §6 item 1:
// a queue owns a UDP socket bound to 127.0.0.1:BasePort+id; Put opens an
// ephemeral socket, sendto's one datagram, and closes it; Get recvfrom's
// one datagram from the bound socket.
type Datagram struct {
	mu      sync.Mutex
	fd      int
	port    int
	msgSize uint32
	log     *oslog.Logger
}

// NewDatagram binds a receiving socket for queue id at
// 127.0.0.1:BasePort+id.
func NewDatagram(id uint32, msgSize uint32) (*Datagram, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return nil, fmt.Errorf("queuetransport: socket: %w", err)
	}

	port := BasePort + int(id)
	addr := &unix.SockaddrInet4{Port: port, Addr: [4]byte{127, 0, 0, 1}}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("queuetransport: bind :%d: %w", port, err)
	}

	return &Datagram{fd: fd, port: port, msgSize: msgSize, log: oslog.Default()}, nil
}

// Put sends one datagram of exactly len(data) bytes to the queue's port,
// from a fresh ephemeral socket, per spec.md §6.
func (d *Datagram) Put(data []byte) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return fmt.Errorf("queuetransport: socket: %w", err)
	}
	defer unix.Close(fd)

	addr := &unix.SockaddrInet4{Port: d.port, Addr: [4]byte{127, 0, 0, 1}}
	_, err = oswait.RestartOnEINTR(func() (int, error) {
		return 0, unix.Sendto(fd, data, unix.MSG_DONTWAIT, addr)
	})
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return ErrFull
	}
	if err != nil {
		return fmt.Errorf("queuetransport: sendto: %w", err)
	}
	return nil
}

func (d *Datagram) recvOnce(buf []byte, flags int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, _, err := unix.Recvfrom(d.fd, buf, flags)
	return n, err
}

// Get reads one datagram per spec.md §4.3's PEND/CHECK/timeout modes.
func (d *Datagram) Get(ctx context.Context, buf []byte, mode Mode, timeoutMs uint32) (int, error) {
	switch mode {
	case ModeCheck:
		// MSG_TRUNC makes recvfrom report the datagram's real length even
		// if it exceeds len(buf), so checkSize can detect a producer/
		// consumer size mismatch instead of silently observing a
		// buffer-truncated length.
		n, err := d.recvOnce(buf, unix.MSG_DONTWAIT|unix.MSG_TRUNC)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, ErrEmpty
		}
		if err != nil {
			return 0, fmt.Errorf("queuetransport: recvfrom: %w", err)
		}
		return d.checkSize(n, len(buf))

	case ModeTimeout:
		deadline := oswait.Deadline(timeoutMs)
		return d.waitWithDeadline(ctx, buf, deadline, ErrTimeout)

	default: // ModePend
		return d.waitWithDeadline(ctx, buf, time.Time{}, nil)
	}
}

// waitWithDeadline polls recv with a bounded SO_RCVTIMEO so it can check
// ctx cancellation between wakeups, preserving the original deadline
// across EINTR restarts instead of recomputing a relative timeout
// (spec.md §9).
func (d *Datagram) waitWithDeadline(ctx context.Context, buf []byte, deadline time.Time, onTimeout error) (int, error) {
	hasDeadline := !deadline.IsZero()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		wait := pollInterval
		if hasDeadline {
			remaining := oswait.Remaining(deadline)
			if remaining <= 0 {
				return 0, onTimeout
			}
			if remaining < wait {
				wait = remaining
			}
		}

		tv := unix.NsecToTimeval(int64(wait))
		_ = unix.SetsockoptTimeval(d.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)

		n, err := d.recvOnce(buf, unix.MSG_TRUNC)
		switch {
		case err == nil:
			return d.checkSize(n, len(buf))
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			continue // poll-interval elapsed with nothing ready; re-check ctx/deadline
		case err == syscall.EINTR:
			continue
		default:
			return 0, fmt.Errorf("queuetransport: recvfrom: %w", err)
		}
	}
}

func (d *Datagram) checkSize(n, want int) (int, error) {
	if n != want {
		return 0, ErrInvalidSize
	}
	return n, nil
}

// Close releases the bound socket.
func (d *Datagram) Close() error {
	return unix.Close(d.fd)
}
