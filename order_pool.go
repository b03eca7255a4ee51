package match

import (
	"errors"

	"github.com/0x5487/lob/structure"
)

// orderPool stores resting orders in a slot arena and maps order ids to handles.
// Handles are the only way queues refer to orders; a cancelled order's handle goes
// stale immediately, so it can stay queued until a sweep drains it.
type orderPool struct {
	arena   *structure.SlotArena[Order]
	index   map[uint64]structure.Handle
	bounded bool
}

func newOrderPool(capacity int32, maxOrders int32, onGrow func(oldCap, newCap int32)) *orderPool {
	return &orderPool{
		arena: structure.NewSlotArenaWithOptions[Order](capacity, structure.ArenaOptions{
			MaxCapacity: maxOrders,
			OnGrow:      onGrow,
		}),
		index:   make(map[uint64]structure.Handle, capacity),
		bounded: maxOrders > 0,
	}
}

// insert stores a new resting order, reusing the most recently freed slot if any.
func (p *orderPool) insert(id uint64, side Side, price uint64, size uint64) (structure.Handle, error) {
	if _, ok := p.index[id]; ok {
		return structure.NullHandle, ErrDuplicateID
	}

	h, err := p.arena.Alloc(Order{ID: id, Side: side, Price: price, Size: size})
	if err != nil {
		if errors.Is(err, structure.ErrMaxCapacityReached) {
			return structure.NullHandle, ErrCapacityExceeded
		}
		return structure.NullHandle, err
	}

	p.index[id] = h
	return h, nil
}

// cancel zeroes the order and returns its slot to the free list.
// It returns the order as it was before cancellation, or false if id is not resting.
func (p *orderPool) cancel(id uint64) (Order, bool) {
	h, ok := p.index[id]
	if !ok {
		return Order{}, false
	}
	delete(p.index, id)

	ord := p.arena.Get(h)
	if ord == nil {
		return Order{}, false
	}
	snapshot := *ord
	ord.Size = 0
	p.arena.Free(h)
	return snapshot, true
}

// release frees the slot of a fully filled order.
func (p *orderPool) release(h structure.Handle) {
	ord := p.arena.Get(h)
	if ord == nil {
		return
	}
	if cur, ok := p.index[ord.ID]; ok && cur == h {
		delete(p.index, ord.ID)
	}
	p.arena.Free(h)
}

// get returns the order behind h, or nil when h is stale (the order was cancelled
// or released). Callers treat nil exactly like a zero-size order.
func (p *orderPool) get(h structure.Handle) *Order {
	return p.arena.Get(h)
}

// lookup finds a resting order by id.
func (p *orderPool) lookup(id uint64) (*Order, bool) {
	h, ok := p.index[id]
	if !ok {
		return nil, false
	}
	ord := p.arena.Get(h)
	return ord, ord != nil
}

func (p *orderPool) contains(id uint64) bool {
	_, ok := p.index[id]
	return ok
}

// hasRoom reports whether insert can succeed without hitting the capacity bound.
func (p *orderPool) hasRoom() bool {
	if !p.bounded {
		return true
	}
	return p.arena.FreeCount() > 0 || p.arena.Size() < p.maxOrders()
}

func (p *orderPool) maxOrders() int32 {
	return p.arena.MaxCapacity()
}

func (p *orderPool) len() int {
	return int(p.arena.Len())
}
