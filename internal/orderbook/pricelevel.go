package orderbook

// priceLevel is the FIFO queue of every order resting at one (side, price).
// The queue is intrusive: each order's prev/next fields, stored in the
// arena, are the links, so enqueue/dequeue/splice touch no memory beyond
// the arena slots themselves.
//
// Grounded on price_level.go's linked-list PriceLevel (Enqueue, Dequeue,
// unlinkAlreadyInactive), rebuilt to link by arena handle instead of by
// *Order pointer.
type priceLevel struct {
	price      Price
	head, tail handle
	totalQty   Quantity
	count      int
}

func newPriceLevel(price Price) *priceLevel {
	return &priceLevel{price: price, head: nilHandle, tail: nilHandle}
}

func (l *priceLevel) empty() bool { return l.count == 0 }

// enqueue appends h to the tail of the FIFO.
func (l *priceLevel) enqueue(a *arena, h handle) {
	o := a.get(h)
	o.prev, o.next = nilHandle, nilHandle
	if l.tail == nilHandle {
		l.head = h
	} else {
		a.get(l.tail).next = h
		o.prev = l.tail
	}
	l.tail = h
	l.totalQty += o.remaining
	l.count++
}

// popHead removes and returns the oldest order in the queue.
func (l *priceLevel) popHead(a *arena) handle {
	h := l.head
	if h == nilHandle {
		return nilHandle
	}
	l.unlink(a, h)
	return h
}

// unlink splices h out of the queue given only its handle (O(1), no scan),
// adjusting totalQty and count. It does not release h's arena slot.
func (l *priceLevel) unlink(a *arena, h handle) {
	o := a.get(h)
	if o.prev != nilHandle {
		a.get(o.prev).next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nilHandle {
		a.get(o.next).prev = o.prev
	} else {
		l.tail = o.prev
	}
	l.totalQty -= o.remaining
	l.count--
	o.prev, o.next = nilHandle, nilHandle
}
