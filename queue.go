package osal

import (
	"context"

	"github.com/behrlich/osal/internal/queuetransport"
	"github.com/behrlich/osal/internal/registry"
)

// QueueBacking selects which of spec.md §6's two interchangeable
// backings a queue uses.
type QueueBacking int

const (
	// QueueBackingDatagram uses a UDP-socket-per-queue transport.
	QueueBackingDatagram QueueBacking = iota
	// QueueBackingMessageQueue uses a POSIX message-queue transport.
	QueueBackingMessageQueue
)

type queueRow struct {
	creator      uint32
	depth        uint32
	msgSize      uint32
	currentCount uint32
	transport    queuetransport.Queue
}

// QueueInfo is the result of QueueGetInfo.
type QueueInfo struct {
	Creator      uint32
	Depth        uint32
	MsgSize      uint32
	CurrentCount uint32
	Name         string
}

// QueueTimeout sentinel values for QueueGet's timeout parameter,
// matching spec.md §4.3's three modes.
const (
	QueuePend  int32 = -1
	QueueCheck int32 = 0
)

// QueueCreate creates a bounded FIFO queue with the given depth and
// fixed message size, backed by backing.
func QueueCreate(ctx context.Context, name string, depth, msgSize uint32, backing QueueBacking) (uint32, Status) {
	s := current()

	id, err := s.queues.Reserve(name)
	if err != nil {
		return 0, statusFromRegistryErr(err)
	}

	var transport queuetransport.Queue
	var hostErr error
	switch backing {
	case QueueBackingMessageQueue:
		transport, hostErr = queuetransport.NewMQueue(name, msgSize)
	default:
		// The port is keyed on the slot index, not the packed id, so a
		// reused slot (higher generation) still maps into the port range.
		index, _ := registry.UnpackID(id)
		transport, hostErr = queuetransport.NewDatagram(index, msgSize)
	}
	if hostErr != nil {
		_ = s.queues.Release(id)
		s.log.Error("QueueCreate host construction failed", "name", name, "error", hostErr)
		return 0, StatusError
	}

	creator := TaskGetId(ctx)
	fillErr := s.queues.Fill(id, func(r *queueRow) {
		r.creator = creator
		r.depth = depth
		r.msgSize = msgSize
		r.transport = transport
	})
	if fillErr != nil {
		transport.Close()
		_ = s.queues.Release(id)
		return 0, StatusError
	}

	s.log.Debug("QueueCreate", "id", id, "name", name, "depth", depth, "msg_size", msgSize)
	return id, StatusSuccess
}

// QueueDelete releases the host transport and the row.
func QueueDelete(id uint32) Status {
	s := current()

	var transport queuetransport.Queue
	if err := s.queues.Get(id, func(_ string, r *queueRow) { transport = r.transport }); err != nil {
		return statusFromRegistryErr(err)
	}
	if transport != nil {
		transport.Close()
	}
	return statusFromRegistryErr(s.queues.Release(id))
}

// QueuePut is non-blocking: it returns StatusQueueFull if the backing
// transport cannot accept another message (spec.md §4.3). size must
// equal the queue's configured message size.
func QueuePut(id uint32, data []byte, size uint32) Status {
	s := current()

	var transport queuetransport.Queue
	var msgSize uint32
	full := false
	err := s.queues.Mutate(id, func(r *queueRow) {
		transport = r.transport
		msgSize = r.msgSize
		if r.currentCount >= r.depth {
			full = true
			return
		}
		r.currentCount++
	})
	if err != nil {
		return statusFromRegistryErr(err)
	}
	if size != msgSize || uint32(len(data)) != msgSize {
		if !full {
			_ = s.queues.Mutate(id, func(r *queueRow) { r.currentCount-- })
		}
		return StatusQueueInvalidSize
	}
	if full {
		return StatusQueueFull
	}

	if err := transport.Put(data); err != nil {
		_ = s.queues.Mutate(id, func(r *queueRow) { r.currentCount-- })
		if err == queuetransport.ErrFull {
			return StatusQueueFull
		}
		s.log.Error("QueuePut failed", "id", id, "error", err)
		return StatusError
	}
	return StatusSuccess
}

// QueueGet reads one message, per spec.md §4.3's PEND (timeout<0),
// CHECK (timeout==0), or bounded-ms (timeout>0) modes. Returns the
// number of bytes copied and the status.
func QueueGet(ctx context.Context, id uint32, buf []byte, timeout int32) (copied int, status Status) {
	s := current()

	var transport queuetransport.Queue
	if err := s.queues.Get(id, func(_ string, r *queueRow) { transport = r.transport }); err != nil {
		return 0, statusFromRegistryErr(err)
	}

	mode := queuetransport.ModePend
	var timeoutMs uint32
	switch {
	case timeout == QueueCheck:
		mode = queuetransport.ModeCheck
	case timeout > 0:
		mode = queuetransport.ModeTimeout
		timeoutMs = uint32(timeout)
	}

	n, err := transport.Get(ctx, buf, mode, timeoutMs)
	switch {
	case err == nil:
		_ = s.queues.Mutate(id, func(r *queueRow) {
			if r.currentCount > 0 {
				r.currentCount--
			}
		})
		return n, StatusSuccess
	case err == queuetransport.ErrEmpty:
		return 0, StatusQueueEmpty
	case err == queuetransport.ErrTimeout:
		return 0, StatusQueueTimeout
	case err == queuetransport.ErrInvalidSize:
		return 0, StatusQueueInvalidSize
	default:
		s.log.Error("QueueGet failed", "id", id, "error", err)
		return 0, StatusError
	}
}

// QueueGetIdByName resolves a queue name to its id.
func QueueGetIdByName(name string) (uint32, Status) {
	id, err := current().queues.FindByName(name)
	return id, statusFromRegistryErr(err)
}

// QueueGetInfo returns a snapshot of a queue row's metadata.
func QueueGetInfo(id uint32) (QueueInfo, Status) {
	var info QueueInfo
	err := current().queues.Get(id, func(name string, r *queueRow) {
		info = QueueInfo{Creator: r.creator, Depth: r.depth, MsgSize: r.msgSize, CurrentCount: r.currentCount, Name: name}
	})
	return info, statusFromRegistryErr(err)
}
