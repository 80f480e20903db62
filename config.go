package osal

import (
	"sync"
	"sync/atomic"

	"github.com/behrlich/osal/internal/oslog"
	"github.com/behrlich/osal/internal/registry"
)

// Config holds the table capacities and host-priority range the OSAL is
// initialized with, analogous to go-ublk's DeviceParams/DefaultParams.
type Config struct {
	MaxTasks           int
	MaxQueues          int
	MaxBinSemaphores   int
	MaxCountSemaphores int
	MaxMutexes         int
	MaxVolumes         int
	MaxAPIName         int

	// HostPriorityMin/Max bound the remapped host priority range used by
	// TaskCreate/TaskSetPriority (spec.md §4.2.1). Defaults mirror a
	// typical POSIX SCHED_FIFO range (1..99).
	HostPriorityMin int
	HostPriorityMax int

	// TicksPerSecond is the host clock tick rate used by Tick2Micros and
	// Milli2Ticks (spec.md §6).
	TicksPerSecond int

	Logger *oslog.Logger
}

// DefaultConfig returns sensible defaults, the way go-ublk's
// DefaultParams(backend) does for DeviceParams.
func DefaultConfig() Config {
	return Config{
		MaxTasks:           DefaultMaxTasks,
		MaxQueues:          DefaultMaxQueues,
		MaxBinSemaphores:   DefaultMaxBinSemaphores,
		MaxCountSemaphores: DefaultMaxCountSemaphores,
		MaxMutexes:         DefaultMaxMutexes,
		MaxVolumes:         DefaultMaxVolumes,
		MaxAPIName:         DefaultMaxAPIName,
		HostPriorityMin:    1,
		HostPriorityMax:    99,
		TicksPerSecond:     100,
		Logger:             oslog.Default(),
	}
}

// system holds the six lock-protected tables (spec.md §5's "Global
// process-wide state") plus the config they were initialized with.
type system struct {
	cfg Config
	log *oslog.Logger

	tasks     *registry.Table[taskRow]
	queues    *registry.Table[queueRow]
	binSems   *registry.Table[binSemRow]
	countSems *registry.Table[countSemRow]
	mutexes   *registry.Table[mutexRow]
	volumes   *registry.Table[volumeRow]
}

var (
	initOnce sync.Once
	sysPtr   atomic.Pointer[system]
)

func newSystem(cfg Config) *system {
	if cfg.Logger == nil {
		cfg.Logger = oslog.Default()
	}
	// MaxAPIName counts the terminator; the registry takes the longest
	// allowed name length without it.
	maxName := cfg.MaxAPIName - 1
	return &system{
		cfg:       cfg,
		log:       cfg.Logger,
		tasks:     registry.New[taskRow](cfg.MaxTasks, maxName),
		queues:    registry.New[queueRow](cfg.MaxQueues, maxName),
		binSems:   registry.New[binSemRow](cfg.MaxBinSemaphores, maxName),
		countSems: registry.New[countSemRow](cfg.MaxCountSemaphores, maxName),
		mutexes:   registry.New[mutexRow](cfg.MaxMutexes, maxName),
		volumes:   registry.New[volumeRow](cfg.MaxVolumes, maxName),
	}
}

// Init initializes the OSAL's tables exactly once per process, per
// spec.md §5 ("Initialised exactly once by ApiInit; no teardown API").
// Subsequent calls are no-ops and return StatusSuccess.
func Init(cfg Config) Status {
	initOnce.Do(func() {
		s := newSystem(cfg)
		s.log.Info("osal initialized", "max_tasks", cfg.MaxTasks, "max_queues", cfg.MaxQueues)
		sysPtr.Store(s)
	})
	return StatusSuccess
}

// current returns the process-wide system, lazily initializing it with
// defaults if Init was never called explicitly. sysPtr is an
// atomic.Pointer rather than a bare field so a racing current() never
// observes a partially published *system while Init/ResetForTest are
// still constructing one.
func current() *system {
	if s := sysPtr.Load(); s != nil {
		return s
	}
	Init(DefaultConfig())
	return sysPtr.Load()
}

// ResetForTest tears down and reinitializes the global state. It exists
// only to let package tests run independently of each other's tables;
// it is not part of the public OSAL contract (spec.md §5 explicitly has
// no teardown API for production use).
func ResetForTest(cfg Config) {
	initOnce = sync.Once{}
	sysPtr.Store(nil)
	Init(cfg)
}
