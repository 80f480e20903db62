package osal

import (
	"context"
	"sync"
)

type mutexRow struct {
	creator     uint32
	owner       uint32
	nestedDepth int
	lock        *sync.Mutex
}

// MutexInfo is the result of MutSemGetInfo.
type MutexInfo struct {
	Creator     uint32
	Owner       uint32
	NestedDepth int
	Name        string
}

// MutSemCreate creates a recursive, self-owning mutex, initially unlocked.
func MutSemCreate(ctx context.Context, name string) (uint32, Status) {
	s := current()

	id, err := s.mutexes.Reserve(name)
	if err != nil {
		return 0, statusFromRegistryErr(err)
	}

	creator := TaskGetId(ctx)
	fillErr := s.mutexes.Fill(id, func(r *mutexRow) {
		r.creator = creator
		r.owner = UninitializedID
		r.lock = &sync.Mutex{}
	})
	if fillErr != nil {
		_ = s.mutexes.Release(id)
		return 0, StatusError
	}
	return id, StatusSuccess
}

// MutSemDelete releases a mutex.
func MutSemDelete(id uint32) Status {
	return statusFromRegistryErr(current().mutexes.Release(id))
}

// MutSemTake attempts the host lock. A caller that already owns the
// mutex (Go's stand-in for the host's EDEADLK-on-self-relock signal)
// instead increments nested_depth and succeeds immediately, per
// spec.md §4.4's recursive-mutex contract.
func MutSemTake(ctx context.Context, id uint32) Status {
	s := current()
	taskID := TaskGetId(ctx)

	var lock *sync.Mutex
	alreadyOwned := false
	err := s.mutexes.Mutate(id, func(r *mutexRow) {
		lock = r.lock
		if r.owner == taskID && r.owner != UninitializedID {
			r.nestedDepth++
			alreadyOwned = true
		}
	})
	if err != nil {
		return statusFromRegistryErr(err)
	}
	if alreadyOwned {
		return StatusSuccess
	}

	lock.Lock()

	err = s.mutexes.Mutate(id, func(r *mutexRow) {
		r.owner = taskID
		r.nestedDepth = 0
	})
	if err != nil {
		lock.Unlock()
		return statusFromRegistryErr(err)
	}
	return StatusSuccess
}

// MutSemGive decrements nested_depth if positive (without unlocking the
// host mutex), else unlocks it. Per spec.md §4.4.
func MutSemGive(ctx context.Context, id uint32) Status {
	s := current()
	taskID := TaskGetId(ctx)

	var lock *sync.Mutex
	releaseLock := false
	err := s.mutexes.Mutate(id, func(r *mutexRow) {
		if r.owner != taskID {
			return
		}
		if r.nestedDepth > 0 {
			r.nestedDepth--
			return
		}
		r.owner = UninitializedID
		lock = r.lock
		releaseLock = true
	})
	if err != nil {
		return statusFromRegistryErr(err)
	}
	if releaseLock {
		lock.Unlock()
	}
	return StatusSuccess
}

// MutSemGetIdByName resolves a mutex name to its id.
func MutSemGetIdByName(name string) (uint32, Status) {
	id, err := current().mutexes.FindByName(name)
	return id, statusFromRegistryErr(err)
}

// MutSemGetInfo returns a snapshot of a mutex row.
func MutSemGetInfo(id uint32) (MutexInfo, Status) {
	var info MutexInfo
	err := current().mutexes.Get(id, func(name string, r *mutexRow) {
		info = MutexInfo{Creator: r.creator, Owner: r.owner, NestedDepth: r.nestedDepth, Name: name}
	})
	return info, statusFromRegistryErr(err)
}
