package osal

import (
	"errors"
	"syscall"
	"testing"
)

func TestStructuredError(t *testing.T) {
	err := NewError("TaskCreate", StatusInvalidPriority, "invalid priority")

	if err.Op != "TaskCreate" {
		t.Errorf("Expected Op=TaskCreate, got %s", err.Op)
	}
	if err.Code != StatusInvalidPriority {
		t.Errorf("Expected Code=StatusInvalidPriority, got %s", err.Code)
	}

	expected := "osal: invalid priority (op=TaskCreate)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestErrorWithErrno(t *testing.T) {
	err := NewErrorWithErrno("MutSemTake", StatusSemFailure, syscall.EPERM)

	if err.Errno != syscall.EPERM {
		t.Errorf("Expected Errno=EPERM, got %v", err.Errno)
	}
	if err.Code != StatusSemFailure {
		t.Errorf("Expected Code=StatusSemFailure, got %s", err.Code)
	}
}

func TestObjectError(t *testing.T) {
	err := NewObjectError("QueuePut", "queue", 123, StatusQueueFull, "queue full")

	if err.Id != 123 {
		t.Errorf("Expected Id=123, got %d", err.Id)
	}

	expected := "osal: queue full (op=QueuePut) (queue=123)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if err.ObjectKind != "queue" {
		t.Errorf("Expected ObjectKind=queue, got %s", err.ObjectKind)
	}
}

func TestWrapError(t *testing.T) {
	inner := syscall.ENOENT
	err := WrapError("QueueGetIdByName", inner)

	if err.Code != StatusNameNotFound {
		t.Errorf("Expected Code=StatusNameNotFound, got %s", err.Code)
	}
	if err.Errno != syscall.ENOENT {
		t.Errorf("Expected Errno=ENOENT, got %v", err.Errno)
	}
	if !errors.Is(err, syscall.ENOENT) {
		t.Error("Expected wrapped error to satisfy errors.Is for ENOENT")
	}
}

func TestIsStatus(t *testing.T) {
	err := NewError("TaskDelay", StatusSemTimeout, "timed out")

	if !IsStatus(err, StatusSemTimeout) {
		t.Error("IsStatus should return true for matching code")
	}
	if IsStatus(err, StatusError) {
		t.Error("IsStatus should return false for non-matching code")
	}
	if IsStatus(nil, StatusSemTimeout) {
		t.Error("IsStatus should return false for nil error")
	}
}

func TestErrnoMapping(t *testing.T) {
	testCases := []struct {
		errno    syscall.Errno
		expected Status
	}{
		{syscall.ENOENT, StatusNameNotFound},
		{syscall.EEXIST, StatusNameTaken},
		{syscall.EINVAL, StatusInvalidPointer},
		{syscall.ENOSYS, StatusNotImplemented},
		{syscall.ETIMEDOUT, StatusSemTimeout},
		{syscall.EIO, StatusError},
	}

	for _, tc := range testCases {
		code := mapErrnoToStatus(tc.errno)
		if code != tc.expected {
			t.Errorf("mapErrnoToStatus(%v) = %s, want %s", tc.errno, code, tc.expected)
		}
	}
}

func TestGetErrorName(t *testing.T) {
	if GetErrorName(StatusQueueFull) != "QUEUE_FULL" {
		t.Errorf("expected QUEUE_FULL, got %s", GetErrorName(StatusQueueFull))
	}
	if GetErrorName(Status(9999)) != "UNKNOWN" {
		t.Errorf("expected UNKNOWN for unmapped code")
	}
}
