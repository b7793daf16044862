package orderbook

// Book is the pure in-memory matching core for one instrument: two
// price-indexed ladders, an arena of order records, and the order-id
// index. It has no I/O and is safe to use only from a single goroutine at
// a time — callers in this repo enforce that by running it exclusively
// inside the processor's actor loop.
//
// Grounded on order_book.go's OrderBook (placeOrder/match/cancelOrder) for
// the overall matching shape, generalized with self-trade prevention and
// an explicit order-id index, neither of which that draft has — both are
// grounded instead on original_source/crates/engine-core/src/lib.rs's
// place_limit_order and cancel_order, an earlier Rust implementation of
// the same matching engine.
type Book struct {
	arena *arena
	bids  *ladder
	asks  *ladder
	index map[OrderID]handle
}

func NewBook() *Book {
	return &Book{
		arena: newArena(1024),
		bids:  newLadder(),
		asks:  newLadder(),
		index: make(map[OrderID]handle, 1024),
	}
}

func (b *Book) ladderFor(side Side) *ladder {
	if side == Bid {
		return b.bids
	}
	return b.asks
}

// PlaceLimit matches orderID against the opposite ladder and rests any
// unfilled residual at (side, price).
func (b *Book) PlaceLimit(orderID OrderID, user UserID, side Side, price Price, qty Quantity, seq Sequence) ([]Event, RejectReason) {
	if qty == 0 {
		return nil, RejectZeroQuantity
	}
	if _, live := b.index[orderID]; live {
		return nil, RejectDuplicateOrderID
	}

	var events []Event
	remaining := b.match(side, price, false, qty, orderID, user, seq, &events)

	if remaining > 0 {
		o := order{
			id:        orderID,
			user:      user,
			side:      side,
			price:     price,
			remaining: remaining,
			original:  qty,
			arrival:   seq,
		}
		h := b.arena.alloc(o)
		b.ladderFor(side).upsert(price).enqueue(b.arena, h)
		b.index[orderID] = h
		events = append(events, OrderPlaced{
			Sequence: seq, OrderID: orderID, UserID: user,
			Price: price, Quantity: remaining, Side: side,
		})
	}
	return events, RejectNone
}

// PlaceMarket matches orderID against the opposite ladder until qty is
// exhausted or the opposite side empties; any unfilled remainder is
// discarded, never rested, and the order id is never indexed.
func (b *Book) PlaceMarket(orderID OrderID, user UserID, side Side, qty Quantity, seq Sequence) ([]Event, RejectReason) {
	if qty == 0 {
		return nil, RejectZeroQuantity
	}
	if _, live := b.index[orderID]; live {
		return nil, RejectDuplicateOrderID
	}
	if b.ladderFor(side.opposite()).Size() == 0 {
		return nil, RejectNoLiquidity
	}

	var events []Event
	b.match(side, 0, true, qty, orderID, user, seq, &events)
	return events, RejectNone
}

// Cancel removes a live resting order.
func (b *Book) Cancel(orderID OrderID, user UserID, seq Sequence) ([]Event, RejectReason) {
	h, live := b.index[orderID]
	if !live {
		return nil, RejectNotFound
	}
	o := b.arena.get(h)
	if o.user != user {
		return nil, RejectNotOwner
	}

	lad := b.ladderFor(o.side)
	level := lad.find(o.price)
	level.unlink(b.arena, h)
	if level.empty() {
		lad.remove(o.price)
	}
	delete(b.index, orderID)
	b.arena.release(h)

	return []Event{OrderCanceled{Sequence: seq, OrderID: orderID, Reason: CancelRequested}}, RejectNone
}

// Depth returns up to limit aggregated price levels per side, asks
// ascending from best, bids descending from best. Only ever called from
// the goroutine that owns the Book, between commands, so it never races
// with a mutation in progress.
func (b *Book) Depth(limit int) (asks, bids []OrderLevel) {
	b.asks.ascend(func(l *priceLevel) bool {
		if len(asks) >= limit {
			return false
		}
		asks = append(asks, OrderLevel{Price: l.price, Quantity: l.totalQty})
		return true
	})
	b.bids.descend(func(l *priceLevel) bool {
		if len(bids) >= limit {
			return false
		}
		bids = append(bids, OrderLevel{Price: l.price, Quantity: l.totalQty})
		return true
	})
	return asks, bids
}

// BestBidAsk reports the best price on each side (ok=false when a side is
// empty), used by tests asserting the book is never crossed at rest.
func (b *Book) BestBidAsk() (bestBid Price, bidOK bool, bestAsk Price, askOK bool) {
	if l := b.bids.max(); l != nil {
		bestBid, bidOK = l.price, true
	}
	if l := b.asks.min(); l != nil {
		bestAsk, askOK = l.price, true
	}
	return
}

// PrecheckPlace runs the non-mutating half of PlaceLimit/PlaceMarket's
// validation — zero quantity, duplicate order id, and (for market
// orders) empty opposite-side liquidity — so a caller can decide whether
// a command is durably loggable before it has touched the book at all,
// so the processor can log a command to the WAL before ever applying it.
func (b *Book) PrecheckPlace(orderID OrderID, side Side, qty Quantity, market bool) RejectReason {
	if qty == 0 {
		return RejectZeroQuantity
	}
	if _, live := b.index[orderID]; live {
		return RejectDuplicateOrderID
	}
	if market && b.ladderFor(side.opposite()).Size() == 0 {
		return RejectNoLiquidity
	}
	return RejectNone
}

// PrecheckCancel runs the non-mutating half of Cancel's validation.
func (b *Book) PrecheckCancel(orderID OrderID, user UserID) RejectReason {
	owner, live := b.Owner(orderID)
	if !live {
		return RejectNotFound
	}
	if owner != user {
		return RejectNotOwner
	}
	return RejectNone
}

// Live reports whether orderID currently names a resting order.
// PrecheckPlace performs its own duplicate-id check against the index and
// does not call Live.
func (b *Book) Live(orderID OrderID) bool {
	_, ok := b.index[orderID]
	return ok
}

// Owner reports the user that owns orderID's resting order, and whether
// it exists at all.
func (b *Book) Owner(orderID OrderID) (UserID, bool) {
	h, ok := b.index[orderID]
	if !ok {
		return 0, false
	}
	return b.arena.get(h).user, true
}

// LiveOrderCount exposes the arena's live-slot count, for checking that
// arena-live records match the orders in the index.
func (b *Book) LiveOrderCount() int { return b.arena.liveCount() }

// match implements price-time priority with self-trade prevention.
// unlimited is true for market orders (crosses any price); otherwise
// limit bounds how far the aggressor will cross. It returns the
// aggressor's unfilled remainder.
func (b *Book) match(side Side, limit Price, unlimited bool, qty Quantity, aggressorID OrderID, aggressorUser UserID, seq Sequence, events *[]Event) Quantity {
	opp := b.ladderFor(side.opposite())

	for qty > 0 {
		var level *priceLevel
		if side == Bid {
			level = opp.min()
		} else {
			level = opp.max()
		}
		if level == nil {
			break
		}
		if !unlimited {
			if side == Bid && level.price > limit {
				break
			}
			if side == Ask && level.price < limit {
				break
			}
		}

		h := level.head
		m := b.arena.get(h)

		if m.user == aggressorUser {
			// Self-trade prevention: cancel the resting maker, consume
			// none of the aggressor's quantity, and keep matching.
			level.unlink(b.arena, h)
			delete(b.index, m.id)
			canceledID := m.id
			b.arena.release(h)
			if level.empty() {
				opp.remove(level.price)
			}
			*events = append(*events, OrderCanceled{Sequence: seq, OrderID: canceledID, Reason: CancelSelfTrade})
			continue
		}

		tradeQty := qty
		if m.remaining < tradeQty {
			tradeQty = m.remaining
		}
		tradePrice := m.price
		makerID := m.id

		qty -= tradeQty
		m.remaining -= tradeQty
		level.totalQty -= tradeQty

		*events = append(*events, Trade{
			Sequence: seq, MakerOrderID: makerID, TakerOrderID: aggressorID,
			Price: tradePrice, Quantity: tradeQty, TakerSide: side,
		})
		*events = append(*events, OrderFilled{
			Sequence: seq, OrderID: makerID, FilledQty: tradeQty, RemainingQty: m.remaining,
		})

		if m.remaining == 0 {
			level.unlink(b.arena, h)
			delete(b.index, makerID)
			b.arena.release(h)
			if level.empty() {
				opp.remove(level.price)
			}
		}
	}

	return qty
}
