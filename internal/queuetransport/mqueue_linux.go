//go:build linux

package queuetransport

import (
	"context"
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/behrlich/osal/internal/oslog"
	"github.com/behrlich/osal/internal/oswait"
)

// toTimespec converts an absolute deadline to a unix.Timespec suitable
// for mq_timedsend/mq_timedreceive's abs_timeout parameter.
func toTimespec(deadline time.Time) unix.Timespec {
	return unix.NsecToTimespec(deadline.UnixNano())
}

// mqAttr mirrors struct mq_attr from <mqueue.h>.
type mqAttr struct {
	Flags   int64
	Maxmsg  int64
	Msgsize int64
	Curmsgs int64
	pad     [4]int64
}

// MQueue is the POSIX message-queue backing of spec.md §6 item 2: a
// per-process unique name "/{pid}.{name}", O_CREAT|O_RDWR mode 0666,
// mq_maxmsg=20, mq_msgsize=data_size. Built on raw mq_* syscalls via
// unix.Syscall6 the way go-ublk's internal/uring/iouring.go reaches for
// raw syscalls the stdlib doesn't wrap.
type MQueue struct {
	mqd     int
	name    string
	msgSize uint32
	log     *oslog.Logger
}

const defaultMaxMsg = 20

// NewMQueue opens (creating if necessary) the named message queue.
func NewMQueue(name string, msgSize uint32) (*MQueue, error) {
	fullName := fmt.Sprintf("/%d.%s", os.Getpid(), name)

	attr := mqAttr{Maxmsg: defaultMaxMsg, Msgsize: int64(msgSize)}
	nameBytes, err := unix.BytePtrFromString(fullName)
	if err != nil {
		return nil, err
	}

	mqd, _, errno := unix.Syscall6(
		unix.SYS_MQ_OPEN,
		uintptr(unsafe.Pointer(nameBytes)),
		uintptr(unix.O_CREAT|unix.O_RDWR),
		uintptr(0666),
		uintptr(unsafe.Pointer(&attr)),
		0, 0,
	)
	if errno != 0 {
		return nil, fmt.Errorf("queuetransport: mq_open %s: %w", fullName, errno)
	}

	return &MQueue{mqd: int(mqd), name: fullName, msgSize: msgSize, log: oslog.Default()}, nil
}

func (q *MQueue) timedSend(data []byte, abstime *unix.Timespec) error {
	_, _, errno := unix.Syscall6(
		unix.SYS_MQ_TIMEDSEND,
		uintptr(q.mqd),
		uintptr(unsafe.Pointer(&data[0])),
		uintptr(len(data)),
		0,
		uintptr(unsafe.Pointer(abstime)),
		0,
	)
	if errno != 0 {
		return errno
	}
	return nil
}

func (q *MQueue) timedReceive(buf []byte, abstime *unix.Timespec) (int, error) {
	n, _, errno := unix.Syscall6(
		unix.SYS_MQ_TIMEDRECEIVE,
		uintptr(q.mqd),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		0,
		uintptr(unsafe.Pointer(abstime)),
		0,
	)
	if errno != 0 {
		return 0, errno
	}
	return int(n), nil
}

// Put sends data with an immediate (now) deadline, turning a would-block
// into ErrFull — the non-blocking send behavior spec.md §4.3 requires.
func (q *MQueue) Put(data []byte) error {
	now := unix.NsecToTimespec(0)
	_, err := oswait.RestartOnEINTR(func() (struct{}, error) {
		return struct{}{}, q.timedSend(data, &now)
	})
	if err == unix.ETIMEDOUT {
		return ErrFull
	}
	if err != nil {
		return fmt.Errorf("queuetransport: mq_timedsend: %w", err)
	}
	return nil
}

// Get implements PEND/CHECK/timeout per spec.md §4.3.
func (q *MQueue) Get(ctx context.Context, buf []byte, mode Mode, timeoutMs uint32) (int, error) {
	switch mode {
	case ModeCheck:
		now := unix.NsecToTimespec(0)
		n, err := q.timedReceive(buf, &now)
		if err == unix.ETIMEDOUT {
			return 0, ErrEmpty
		}
		if err == unix.EMSGSIZE {
			return 0, ErrInvalidSize
		}
		if err != nil {
			return 0, fmt.Errorf("queuetransport: mq_timedreceive: %w", err)
		}
		return q.checkSize(n, len(buf))

	case ModeTimeout:
		deadline := oswait.Deadline(timeoutMs)
		ts := toTimespec(deadline)
		n, err := oswait.RestartOnEINTRUntil(deadline, func(_ time.Duration) (int, error) {
			return q.timedReceive(buf, &ts)
		})
		if err == unix.ETIMEDOUT {
			return 0, ErrTimeout
		}
		if err == unix.EMSGSIZE {
			return 0, ErrInvalidSize
		}
		if err != nil {
			return 0, fmt.Errorf("queuetransport: mq_timedreceive: %w", err)
		}
		return q.checkSize(n, len(buf))

	default: // ModePend: nil abstime blocks indefinitely
		n, err := oswait.RestartOnEINTR(func() (int, error) {
			return q.timedReceive(buf, nil)
		})
		if err == unix.EMSGSIZE {
			return 0, ErrInvalidSize
		}
		if err != nil {
			return 0, fmt.Errorf("queuetransport: mq_timedreceive: %w", err)
		}
		return q.checkSize(n, len(buf))
	}
}

func (q *MQueue) checkSize(n, want int) (int, error) {
	if n != want {
		return 0, ErrInvalidSize
	}
	return n, nil
}

// Close unlinks and closes the queue.
func (q *MQueue) Close() error {
	unix.Syscall(unix.SYS_MQ_UNLINK, uintptr(unsafe.Pointer(mustBytePtr(q.name))), 0, 0)
	return unix.Close(q.mqd)
}

func mustBytePtr(s string) *byte {
	p, _ := unix.BytePtrFromString(s)
	return p
}
