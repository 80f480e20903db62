package osal

import (
	"context"

	"github.com/behrlich/osal/internal/hostsem"
	"github.com/behrlich/osal/internal/oswait"
)

const binSemMaxValue = 1

type binSemRow struct {
	creator uint32
	value   int
	sem     *hostsem.Sem
}

// SemInfo is the common shape returned by *GetInfo for binary and
// counting semaphores.
type SemInfo struct {
	Creator uint32
	Value   int
	Name    string
}

// BinSemCreate creates a binary semaphore. initial is clamped to {0,1}.
func BinSemCreate(ctx context.Context, name string, initial uint32) (uint32, Status) {
	s := current()

	if initial > binSemMaxValue {
		initial = binSemMaxValue
	}

	id, err := s.binSems.Reserve(name)
	if err != nil {
		return 0, statusFromRegistryErr(err)
	}

	creator := TaskGetId(ctx)
	fillErr := s.binSems.Fill(id, func(r *binSemRow) {
		r.creator = creator
		r.value = int(initial)
		r.sem = hostsem.New(int(initial))
	})
	if fillErr != nil {
		_ = s.binSems.Release(id)
		return 0, StatusError
	}
	return id, StatusSuccess
}

// BinSemDelete releases a binary semaphore.
func BinSemDelete(id uint32) Status {
	return statusFromRegistryErr(current().binSems.Release(id))
}

// BinSemGive posts the semaphore. It is a no-op (returns Success without
// waking anyone) once the shadow value has reached max_value — flood
// protection against repeated Give calls. Per spec.md §4.4, the host
// post happens outside the kind's lock.
func BinSemGive(id uint32) Status {
	s := current()

	var sem *hostsem.Sem
	skip := false
	err := s.binSems.Mutate(id, func(r *binSemRow) {
		if r.value >= binSemMaxValue {
			skip = true
			return
		}
		r.value++
		sem = r.sem
	})
	if err != nil {
		return statusFromRegistryErr(err)
	}
	if skip {
		return StatusSuccess
	}
	sem.Post()
	return StatusSuccess
}

// BinSemTake decrements the shadow speculatively, then waits on the host
// sem. hostsem.Wait cannot fail, so there is no restore path and this
// always succeeds once unblocked.
func BinSemTake(id uint32) Status {
	s := current()

	var sem *hostsem.Sem
	err := s.binSems.Mutate(id, func(r *binSemRow) {
		r.value--
		sem = r.sem
	})
	if err != nil {
		return statusFromRegistryErr(err)
	}

	sem.Wait()
	return StatusSuccess
}

// BinSemTimedTake waits up to ms milliseconds. On timeout the shadow
// value is restored and SemTimeout is returned.
func BinSemTimedTake(id uint32, ms uint32) Status {
	s := current()

	var sem *hostsem.Sem
	err := s.binSems.Mutate(id, func(r *binSemRow) {
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

	_ = s.binSems.Mutate(id, func(r *binSemRow) { r.value++ })
	return StatusSemTimeout
}

// BinSemFlush wakes all currently-blocked waiters without altering the
// shadow value: it posts the host sem exactly −value times when value
// has gone negative (spec.md §4.4 and §9's "only wakes when shadow
// negative" redesign note), leaving value untouched so a subsequent
// Take still pairs correctly against future Gives.
func BinSemFlush(id uint32) Status {
	s := current()

	err := s.binSems.Mutate(id, func(r *binSemRow) {
		if r.value < 0 {
			r.sem.PostN(-r.value)
		}
	})
	return statusFromRegistryErr(err)
}

// BinSemGetIdByName resolves a binary semaphore name to its id.
func BinSemGetIdByName(name string) (uint32, Status) {
	id, err := current().binSems.FindByName(name)
	return id, statusFromRegistryErr(err)
}

// BinSemGetInfo returns a snapshot of a binary semaphore row.
func BinSemGetInfo(id uint32) (SemInfo, Status) {
	var info SemInfo
	err := current().binSems.Get(id, func(name string, r *binSemRow) {
		info = SemInfo{Creator: r.creator, Value: r.value, Name: name}
	})
	return info, statusFromRegistryErr(err)
}
