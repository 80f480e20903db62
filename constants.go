package osal

// Default table capacities and limits, analogous to the compile-time
// MAX_TASKS/MAX_QUEUES/... constants of spec.md §3. Re-exported from
// Config so callers that don't need a custom Config still have named
// constants to reach for, the way go-ublk's constants.go re-exports
// internal/constants defaults.
const (
	DefaultMaxTasks          = 64
	DefaultMaxQueues         = 64
	DefaultMaxBinSemaphores  = 64
	DefaultMaxCountSemaphores = 64
	DefaultMaxMutexes        = 64
	DefaultMaxVolumes        = 16
	DefaultMaxAPIName        = 32

	// SemValueMax bounds a counting semaphore's max_value (spec.md §3),
	// mirroring the Linux host's SEM_VALUE_MAX (INT_MAX).
	SemValueMax = 1<<31 - 1

	// BufferSize bounds the Printf helper of spec.md §6.
	BufferSize = 256

	// MaxPathLen bounds TranslatePath's input (spec.md §4.5).
	MaxPathLen = 256

	// UninitializedID is the sentinel "creator" value for a row created
	// before any task registered itself (spec.md §3's UNINITIALIZED).
	UninitializedID uint32 = 0xFFFFFFFF

	// MaxPriority is the lowest-priority OSAL value (spec.md §4.2.1: 0 is
	// highest, 255 is lowest).
	MaxPriority uint32 = 255
)
