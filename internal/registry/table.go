// Package registry implements the bounded, named, generation-protected
// object table shared by every OSAL kind (tasks, queues, semaphores,
// mutexes, volumes). A Table[T] is a fixed-size array of slots guarded by
// a single mutex; callers reserve a slot before running a (possibly slow
// or failing) host constructor, fill it once construction succeeds, and
// release it on teardown or construction failure.
package registry

import (
	"errors"
	"sync"
)

// Sentinel errors mapped onto the OSAL Status enumeration at the API
// boundary. Kept as plain errors here so this package has no dependency
// on the root osal package's Status type.
var (
	ErrNoFreeIds    = errors.New("registry: no free slots")
	ErrNameTaken    = errors.New("registry: name already in use")
	ErrNameTooLong  = errors.New("registry: name exceeds maximum length")
	ErrInvalidId    = errors.New("registry: id is not in use")
	ErrNameNotFound = errors.New("registry: name not found")
)

const (
	indexBits = 20
	indexMask = 1<<indexBits - 1
	genMask   = (1 << (32 - indexBits)) - 1
)

// PackID combines a slot index and generation counter into the opaque
// uint32 id exposed by every public OSAL operation.
func PackID(index, generation uint32) uint32 {
	return (generation&genMask)<<indexBits | (index & indexMask)
}

// UnpackID splits an opaque id back into its index and generation parts.
func UnpackID(id uint32) (index, generation uint32) {
	return id & indexMask, (id >> indexBits) & genMask
}

type slot[T any] struct {
	inUse      bool
	generation uint32
	name       string
	data       T
}

// Table is a fixed-capacity, name-unique, lock-guarded object table.
type Table[T any] struct {
	mu      sync.Mutex
	slots   []slot[T]
	maxName int
}

// New creates a table with the given fixed capacity. maxName is the
// maximum byte length of a name, excluding the terminator (MAX_API_NAME-1
// in spec terms); zero means no limit.
func New[T any](capacity, maxName int) *Table[T] {
	return &Table[T]{
		slots:   make([]slot[T], capacity),
		maxName: maxName,
	}
}

// Len returns the table's fixed capacity.
func (t *Table[T]) Len() int {
	return len(t.slots)
}

// Reserve finds the first free slot, checks the name isn't already in use
// by a live row, and marks the slot non-free. The row's data is left at
// its zero value until Fill runs. Returns ErrNameTooLong, ErrNameTaken, or
// ErrNoFreeIds on failure; the table is left unchanged in all failure
// cases.
func (t *Table[T]) Reserve(name string) (id uint32, err error) {
	if t.maxName > 0 && len(name) > t.maxName {
		return 0, ErrNameTooLong
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if name != "" {
		for i := range t.slots {
			if t.slots[i].inUse && t.slots[i].name == name {
				return 0, ErrNameTaken
			}
		}
	}

	for i := range t.slots {
		if !t.slots[i].inUse {
			t.slots[i].inUse = true
			t.slots[i].name = name
			var zero T
			t.slots[i].data = zero
			return PackID(uint32(i), t.slots[i].generation), nil
		}
	}
	return 0, ErrNoFreeIds
}

// Fill writes the kind-specific metadata for a previously reserved row.
// fn is invoked with a pointer to the row's data under the table lock.
func (t *Table[T]) Fill(id uint32, fn func(*T)) error {
	index, generation := UnpackID(id)
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(index) >= len(t.slots) || !t.slots[index].inUse || t.slots[index].generation != generation {
		return ErrInvalidId
	}
	fn(&t.slots[index].data)
	return nil
}

// Release clears a row and bumps its generation so stale ids referring to
// the old occupant are rejected by future Validate/Get calls even if the
// slot is reused.
func (t *Table[T]) Release(id uint32) error {
	index, generation := UnpackID(id)
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(index) >= len(t.slots) || !t.slots[index].inUse || t.slots[index].generation != generation {
		return ErrInvalidId
	}
	var zero T
	t.slots[index] = slot[T]{generation: t.slots[index].generation + 1}
	_ = zero
	return nil
}

// Validate reports whether id currently refers to a live row.
func (t *Table[T]) Validate(id uint32) error {
	index, generation := UnpackID(id)
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(index) >= len(t.slots) || !t.slots[index].inUse || t.slots[index].generation != generation {
		return ErrInvalidId
	}
	return nil
}

// Get reads a row's data and name under the table lock via fn, a
// snapshot-read style that avoids copying T out from under a concurrent
// Fill/Release for types containing non-atomic fields.
func (t *Table[T]) Get(id uint32, fn func(name string, data *T)) error {
	index, generation := UnpackID(id)
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(index) >= len(t.slots) || !t.slots[index].inUse || t.slots[index].generation != generation {
		return ErrInvalidId
	}
	fn(t.slots[index].name, &t.slots[index].data)
	return nil
}

// Mutate is like Get but allows fn to modify the row's data in place.
func (t *Table[T]) Mutate(id uint32, fn func(data *T)) error {
	index, generation := UnpackID(id)
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(index) >= len(t.slots) || !t.slots[index].inUse || t.slots[index].generation != generation {
		return ErrInvalidId
	}
	fn(&t.slots[index].data)
	return nil
}

// FindByName performs a linear scan for a live row with the given name.
func (t *Table[T]) FindByName(name string) (id uint32, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.slots {
		if t.slots[i].inUse && t.slots[i].name == name {
			return PackID(uint32(i), t.slots[i].generation), nil
		}
	}
	return 0, ErrNameNotFound
}

// Each calls fn for every currently live row. fn must not call back into
// the table (Reserve/Fill/Release/etc.) as Each holds the table lock for
// its duration.
func (t *Table[T]) Each(fn func(id uint32, name string, data *T)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.slots {
		if t.slots[i].inUse {
			fn(PackID(uint32(i), t.slots[i].generation), t.slots[i].name, &t.slots[i].data)
		}
	}
}
