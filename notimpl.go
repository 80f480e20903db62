package osal

// HeapInfo mirrors the source's heap statistics structure. On this host
// there is no equivalent allocator to introspect, so HeapGetInfo always
// reports NotImplemented and a zeroed struct, kept only for API
// compatibility with callers ported from the original OSAL surface.
type HeapInfo struct {
	Free        uint32
	Bytes       uint32
	Blocks      uint32
	LargestFree uint32
}

// IntLock disables interrupts on hosts with a raw interrupt controller.
// Not implemented here: Go programs have no analogous primitive, and
// nothing in this package's concurrency model depends on it.
func IntLock() (int32, Status) { return 0, StatusNotImplemented }

// IntUnlock restores interrupts to the state captured by IntLock.
func IntUnlock(int32) Status { return StatusNotImplemented }

// FPUExcSetMask configures floating-point exception trapping on hosts
// that expose it. Not implemented here.
func FPUExcSetMask(uint32) Status { return StatusNotImplemented }

// HeapGetInfo reports heap usage statistics. Not implemented here: Go's
// runtime allocator has no equivalent fixed-heap accounting.
func HeapGetInfo() (HeapInfo, Status) { return HeapInfo{}, StatusNotImplemented }
