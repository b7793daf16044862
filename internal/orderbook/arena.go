package orderbook

// arena owns every order record. Queues and the order-id index hold only
// handles, never pointers, so moving or growing the backing slice never
// invalidates a live reference: a handle is just an index that is looked
// up again on every access.
//
// Grounded on two drafts that each solved half the problem: the fixed
// capacity, stack-of-pointers OrderPool gave the free-list discipline, and
// the original Rust implementation's slab::Slab<Order> gave the growable,
// index-addressed storage. Neither is copied directly — this is a plain
// slice plus a free list of retired handles, grown by append instead of
// preallocated to a hard cap, so there's no "pool exhausted" failure mode
// to panic on.
type arena struct {
	slots []order
	free  []handle
}

func newArena(capacityHint int) *arena {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &arena{
		slots: make([]order, 0, capacityHint),
	}
}

// alloc stores o in a free slot (reusing one from the free list when
// available) and returns its handle.
func (a *arena) alloc(o order) handle {
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[h] = o
		return h
	}
	h := handle(len(a.slots))
	a.slots = append(a.slots, o)
	return h
}

func (a *arena) get(h handle) *order {
	return &a.slots[h]
}

// release returns h's slot to the free list. The caller must first unlink
// it from any price-level queue and the order-id index.
func (a *arena) release(h handle) {
	a.slots[h] = order{}
	a.free = append(a.free, h)
}

// liveCount is the number of slots currently allocated (exposed through
// Book.LiveOrderCount).
func (a *arena) liveCount() int {
	return len(a.slots) - len(a.free)
}
