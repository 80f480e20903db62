// Package hostsem implements the host semaphore primitive the OSAL's
// binary/counting semaphores post and wait on. The pack has no
// third-party binding for POSIX unnamed/counting semaphores (unix.Semget
// is System V IPC, a different primitive family), so this is built
// directly on stdlib sync.Cond, the closest in-corpus idiom for a
// blocking-wait primitive, the way go-ublk wraps low-level primitives
// behind a small narrow-interface package (internal/uring.Ring).
package hostsem

import (
	"sync"
	"time"
)

// Sem is a host counting semaphore: Post increments and wakes one
// waiter, Wait blocks until the count is positive then decrements it.
type Sem struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int
}

// New creates a host semaphore with the given initial count.
func New(initial int) *Sem {
	s := &Sem{count: initial}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Post increments the count and wakes one waiter.
func (s *Sem) Post() {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	s.cond.Signal()
}

// PostN posts n times, waking up to n waiters. Used by Flush semantics
// where n is the number of queued waiters (spec.md §4.4).
func (s *Sem) PostN(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.count += n
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Wait blocks until the count is positive, then decrements it.
func (s *Sem) Wait() {
	s.mu.Lock()
	for s.count <= 0 {
		s.cond.Wait()
	}
	s.count--
	s.mu.Unlock()
}

// TryWait decrements the count and returns true if it was already
// positive, without blocking.
func (s *Sem) TryWait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// TimedWait blocks until the count is positive or the deadline passes.
// sync.Cond has no native timed wait, so this polls on a short interval
// guarded by the deadline — acceptable here because OSAL timed waits are
// bounded, user-specified millisecond durations, not a hot path.
func (s *Sem) TimedWait(deadline time.Time) bool {
	const pollInterval = 2 * time.Millisecond

	for {
		s.mu.Lock()
		if s.count > 0 {
			s.count--
			s.mu.Unlock()
			return true
		}
		s.mu.Unlock()

		if !time.Now().Before(deadline) {
			return false
		}
		sleep := pollInterval
		if remaining := time.Until(deadline); remaining < sleep {
			sleep = remaining
		}
		if sleep > 0 {
			time.Sleep(sleep)
		}
	}
}

// Value returns the semaphore's current count, for diagnostics/tests only.
func (s *Sem) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
