package structure

import (
	"errors"
	"math"
)

// SlotArena is a growable, handle-addressed store of values with a LIFO free list.
// Released slots are reused most-recently-freed first, so steady-state traffic
// allocates nothing once the arena has grown to its working size.
//
// Every slot carries a generation that is bumped when the slot is freed. A Handle
// embeds the generation it was issued with, so a handle that outlives its slot
// (e.g. still queued somewhere after a cancel) resolves to nil instead of to
// whichever value reuses the slot.

const (
	NullIndex int32 = -1

	// NullHandle never resolves to a value.
	NullHandle Handle = 0
)

var (
	ErrMaxCapacityReached = errors.New("arena: max capacity reached")
)

// Handle is an opaque reference to a slot: the low 32 bits hold the slot index,
// the high 32 bits the generation.
type Handle uint64

func newHandle(index int32, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(uint32(index)))
}

// Index returns the slot index the handle points at.
func (h Handle) Index() int32 {
	return int32(uint32(h))
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

type slot[T any] struct {
	value T
	gen   uint32
	used  bool
}

// ArenaOptions configures the arena behavior.
type ArenaOptions struct {
	// MaxCapacity sets the maximum number of slots.
	// If 0 (default), the arena grows without limit.
	MaxCapacity int32

	// OnGrow is called when the backing slice is reallocated.
	OnGrow func(oldCap, newCap int32)
}

// SlotArena is not safe for concurrent use.
type SlotArena[T any] struct {
	slots       []slot[T]
	free        []int32
	count       int32
	maxCapacity int32
	onGrow      func(int32, int32)
}

// NewSlotArena creates an arena with room for capacity values before the first reallocation.
func NewSlotArena[T any](capacity int32) *SlotArena[T] {
	return NewSlotArenaWithOptions[T](capacity, ArenaOptions{})
}

// NewSlotArenaWithOptions creates an arena with custom options.
func NewSlotArenaWithOptions[T any](capacity int32, opts ArenaOptions) *SlotArena[T] {
	if capacity < 0 {
		capacity = 0
	}
	if opts.MaxCapacity > 0 && capacity > opts.MaxCapacity {
		capacity = opts.MaxCapacity
	}
	return &SlotArena[T]{
		slots:       make([]slot[T], 0, capacity),
		free:        make([]int32, 0, capacity),
		maxCapacity: opts.MaxCapacity,
		onGrow:      opts.OnGrow,
	}
}

// Alloc stores v and returns its handle.
// A freed slot is reused if one exists, otherwise the arena grows by one slot.
func (a *SlotArena[T]) Alloc(v T) (Handle, error) {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]

		s := &a.slots[idx]
		s.value = v
		s.used = true
		a.count++
		return newHandle(idx, s.gen), nil
	}

	size := len(a.slots)
	if a.maxCapacity > 0 && int32(size) >= a.maxCapacity {
		return NullHandle, ErrMaxCapacityReached
	}
	if size >= math.MaxInt32 {
		return NullHandle, ErrMaxCapacityReached
	}

	oldCap := cap(a.slots)
	a.slots = append(a.slots, slot[T]{value: v, gen: 1, used: true})
	if newCap := cap(a.slots); newCap != oldCap && a.onGrow != nil {
		a.onGrow(int32(oldCap), int32(newCap))
	}

	a.count++
	return newHandle(int32(size), 1), nil
}

// Get returns a pointer to the value behind h, or nil if h is stale or invalid.
// The pointer is only valid until the next Alloc.
func (a *SlotArena[T]) Get(h Handle) *T {
	idx := h.Index()
	if idx < 0 || int(idx) >= len(a.slots) {
		return nil
	}
	s := &a.slots[idx]
	if !s.used || s.gen != h.generation() {
		return nil
	}
	return &s.value
}

// Valid reports whether h still refers to a live value.
func (a *SlotArena[T]) Valid(h Handle) bool {
	return a.Get(h) != nil
}

// Free zeroes the value behind h and returns its slot to the free list.
// Returns false if h is stale or invalid.
func (a *SlotArena[T]) Free(h Handle) bool {
	if !a.Valid(h) {
		return false
	}

	idx := h.Index()
	s := &a.slots[idx]

	var zero T
	s.value = zero
	s.used = false
	s.gen++
	if s.gen == 0 {
		// generation 0 is reserved so that NullHandle never resolves
		s.gen = 1
	}

	a.free = append(a.free, idx)
	a.count--
	return true
}

// Len returns the number of live values.
func (a *SlotArena[T]) Len() int32 {
	return a.count
}

// Size returns the number of slots ever allocated (live + free).
func (a *SlotArena[T]) Size() int32 {
	return int32(len(a.slots))
}

// Capacity returns the current capacity of the backing slice.
func (a *SlotArena[T]) Capacity() int32 {
	return int32(cap(a.slots))
}

// MaxCapacity returns the configured slot limit, 0 meaning unlimited.
func (a *SlotArena[T]) MaxCapacity() int32 {
	return a.maxCapacity
}

// FreeCount returns the number of slots waiting for reuse.
func (a *SlotArena[T]) FreeCount() int32 {
	return int32(len(a.free))
}
