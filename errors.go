package osal

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/behrlich/osal/internal/registry"
)

// Error is a structured OSAL error carrying enough context to log and
// diagnose a failure, generalized from go-ublk's root errors.go: the
// DevID/Queue fields become ObjectKind/Id, UblkErrorCode becomes Status.
type Error struct {
	Op         string // Operation that failed (e.g. "TaskCreate", "QueueGet")
	ObjectKind string // "task", "queue", "binsem", "countsem", "mutex", "volume" (empty if n/a)
	Id         uint32 // Object id, if applicable (0 if not)
	Code       Status // OSAL status code
	Errno      syscall.Errno
	Msg        string
	Inner      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.ObjectKind != "" {
		parts = append(parts, fmt.Sprintf("%s=%d", e.ObjectKind, e.Id))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = e.Code.String()
	}

	if len(parts) > 0 {
		return fmt.Sprintf("osal: %s (%s)", msg, strings.Join(parts, ") ("))
	}
	return fmt.Sprintf("osal: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is provides errors.Is support, matching on Status code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	var te *Error
	if errors.As(target, &te) {
		return e.Code == te.Code
	}
	return false
}

// NewError creates a structured error from an operation name and status.
func NewError(op string, code Status, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewErrorWithErrno creates a structured error carrying a host errno.
func NewErrorWithErrno(op string, code Status, errno syscall.Errno) *Error {
	return &Error{Op: op, Code: code, Errno: errno, Msg: errno.Error()}
}

// NewObjectError creates a structured error scoped to a specific object.
func NewObjectError(op, kind string, id uint32, code Status, msg string) *Error {
	return &Error{Op: op, ObjectKind: kind, Id: id, Code: code, Msg: msg}
}

// WrapError wraps an existing error with OSAL context, mapping common
// syscall errnos onto the nearest Status the way go-ublk's WrapError maps
// them onto UblkErrorCode.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	if oe, ok := inner.(*Error); ok {
		return &Error{
			Op:         op,
			ObjectKind: oe.ObjectKind,
			Id:         oe.Id,
			Code:       oe.Code,
			Errno:      oe.Errno,
			Msg:        oe.Msg,
			Inner:      oe.Inner,
		}
	}

	if errno, ok := inner.(syscall.Errno); ok {
		return &Error{
			Op:    op,
			Code:  mapErrnoToStatus(errno),
			Errno: errno,
			Msg:   errno.Error(),
			Inner: inner,
		}
	}

	return &Error{Op: op, Code: StatusError, Msg: inner.Error(), Inner: inner}
}

// mapErrnoToStatus maps a host errno onto the nearest OSAL Status.
func mapErrnoToStatus(errno syscall.Errno) Status {
	switch errno {
	case syscall.ENOENT:
		return StatusNameNotFound
	case syscall.EEXIST:
		return StatusNameTaken
	case syscall.EINVAL, syscall.E2BIG:
		return StatusInvalidPointer
	case syscall.ENOSYS, syscall.EOPNOTSUPP:
		return StatusNotImplemented
	case syscall.ETIMEDOUT:
		return StatusSemTimeout
	default:
		return StatusError
	}
}

// statusFromRegistryErr maps the registry package's sentinel errors onto
// the public Status enumeration at the API boundary, the same way
// go-ublk's mapErrnoToCode maps syscall errno onto UblkErrorCode.
func statusFromRegistryErr(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, registry.ErrNoFreeIds):
		return StatusNoFreeIds
	case errors.Is(err, registry.ErrNameTaken):
		return StatusNameTaken
	case errors.Is(err, registry.ErrNameTooLong):
		return StatusNameTooLong
	case errors.Is(err, registry.ErrInvalidId):
		return StatusInvalidId
	case errors.Is(err, registry.ErrNameNotFound):
		return StatusNameNotFound
	default:
		return StatusError
	}
}

// IsStatus checks if an error matches a specific Status code.
func IsStatus(err error, code Status) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}
