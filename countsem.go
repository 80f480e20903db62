package osal

import (
	"context"

	"github.com/behrlich/osal/internal/hostsem"
	"github.com/behrlich/osal/internal/oswait"
)

// countSemMaxValue mirrors the host's SEM_VALUE_MAX rather than binary
// semaphore's max_value=1.
const countSemMaxValue = SemValueMax

type countSemRow struct {
	creator uint32
	value   int
	sem     *hostsem.Sem
}

// CountSemCreate creates a counting semaphore with the given initial
// value (clamped to [0, SEM_VALUE_MAX]).
func CountSemCreate(ctx context.Context, name string, initial uint32) (uint32, Status) {
	s := current()

	value := int(initial)
	if value > countSemMaxValue {
		value = countSemMaxValue
	}

	id, err := s.countSems.Reserve(name)
	if err != nil {
		return 0, statusFromRegistryErr(err)
	}

	creator := TaskGetId(ctx)
	fillErr := s.countSems.Fill(id, func(r *countSemRow) {
		r.creator = creator
		r.value = value
		r.sem = hostsem.New(value)
	})
	if fillErr != nil {
		_ = s.countSems.Release(id)
		return 0, StatusError
	}
	return id, StatusSuccess
}

// CountSemDelete releases a counting semaphore.
func CountSemDelete(id uint32) Status {
	return statusFromRegistryErr(current().countSems.Release(id))
}

// CountSemGive posts the semaphore. Unlike binary semaphore's Give, the
// host post happens while the kind's lock is still held (spec.md §4.4's
// deliberate asymmetry, preserved for back-compatibility with the
// source), so the shadow and the host primitive move together and a
// concurrent Take can never observe one updated without the other.
func CountSemGive(id uint32) Status {
	s := current()

	err := s.countSems.Mutate(id, func(r *countSemRow) {
		if r.value >= countSemMaxValue {
			return
		}
		r.value++
		r.sem.Post()
	})
	return statusFromRegistryErr(err)
}

// CountSemTake decrements the shadow speculatively, then waits on the
// host sem. On a host error the shadow would be restored; hostsem.Wait
// cannot fail, so this always succeeds once unblocked.
func CountSemTake(id uint32) Status {
	s := current()

	var sem *hostsem.Sem
	err := s.countSems.Mutate(id, func(r *countSemRow) {
		r.value--
		sem = r.sem
	})
	if err != nil {
		return statusFromRegistryErr(err)
	}

	sem.Wait()
	return StatusSuccess
}

// CountSemTimedTake waits up to ms milliseconds, restoring the shadow
// and returning SemTimeout on expiry.
func CountSemTimedTake(id uint32, ms uint32) Status {
	s := current()

	var sem *hostsem.Sem
	err := s.countSems.Mutate(id, func(r *countSemRow) {
		r.value--
		sem = r.sem
	})
	if err != nil {
		return statusFromRegistryErr(err)
	}

	deadline := oswait.Deadline(ms)
	if sem.TimedWait(deadline) {
		return StatusSuccess
	}

	_ = s.countSems.Mutate(id, func(r *countSemRow) { r.value++ })
	return StatusSemTimeout
}

// CountSemFlush wakes all currently-blocked waiters without altering the
// shadow value, matching BinSemFlush's redesigned "only wakes when
// shadow negative" behavior (spec.md §9).
func CountSemFlush(id uint32) Status {
	s := current()

	err := s.countSems.Mutate(id, func(r *countSemRow) {
		if r.value < 0 {
			r.sem.PostN(-r.value)
		}
	})
	return statusFromRegistryErr(err)
}

// CountSemGetIdByName resolves a counting semaphore name to its id.
func CountSemGetIdByName(name string) (uint32, Status) {
	id, err := current().countSems.FindByName(name)
	return id, statusFromRegistryErr(err)
}

// CountSemGetInfo returns a snapshot of a counting semaphore row.
func CountSemGetInfo(id uint32) (SemInfo, Status) {
	var info SemInfo
	err := current().countSems.Get(id, func(name string, r *countSemRow) {
		info = SemInfo{Creator: r.creator, Value: r.value, Name: name}
	})
	return info, statusFromRegistryErr(err)
}
