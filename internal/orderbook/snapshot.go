package orderbook

import "sort"

// OrderSnapshot is the durable, transport-agnostic form of one resting
// order, used by internal/snapshotstore to persist the book's live set
// and by recovery to rebuild it without replaying every historical
// command.
//
// Grounded on original_source/crates/engine-core/src/lib.rs's Order
// struct for which fields a resting order needs to be reconstructed
// exactly (including arrival, which fixes its FIFO position within a
// price level).
type OrderSnapshot struct {
	OrderID   OrderID
	UserID    UserID
	Side      Side
	Price     Price
	Remaining Quantity
	Original  Quantity
	Arrival   Sequence
}

// Snapshot returns every live order, in no particular order. Only ever
// called from the goroutine that owns the Book, between commands.
func (b *Book) Snapshot() []OrderSnapshot {
	out := make([]OrderSnapshot, 0, len(b.index))
	for id, h := range b.index {
		o := b.arena.get(h)
		out = append(out, OrderSnapshot{
			OrderID:   id,
			UserID:    o.user,
			Side:      o.side,
			Price:     o.price,
			Remaining: o.remaining,
			Original:  o.original,
			Arrival:   o.arrival,
		})
	}
	return out
}

// RestoreBook rebuilds a Book from a prior Snapshot's output, bypassing
// PlaceLimit/match entirely: these orders already crossed whatever they
// were going to cross, so this only needs to rebuild resting state.
// Orders are sorted by arrival before insertion so that FIFO order within
// a price level matches the original book exactly, since priceLevel
// enqueue always appends to the tail.
func RestoreBook(orders []OrderSnapshot) *Book {
	sorted := make([]OrderSnapshot, len(orders))
	copy(sorted, orders)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Arrival < sorted[j].Arrival })

	b := NewBook()
	for _, s := range sorted {
		o := order{
			id:        s.OrderID,
			user:      s.UserID,
			side:      s.Side,
			price:     s.Price,
			remaining: s.Remaining,
			original:  s.Original,
			arrival:   s.Arrival,
		}
		h := b.arena.alloc(o)
		b.ladderFor(s.Side).upsert(s.Price).enqueue(b.arena, h)
		b.index[s.OrderID] = h
	}
	return b
}
