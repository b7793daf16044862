package orderbook

// CancelReason distinguishes a cancel requested by the owner from one the
// matching algorithm performed on its own initiative (self-trade
// prevention).
type CancelReason uint8

const (
	CancelRequested CancelReason = iota
	CancelSelfTrade
)

func (r CancelReason) String() string {
	if r == CancelSelfTrade {
		return "self_trade"
	}
	return "requested"
}

// Event is the sealed set of book events: OrderPlaced, OrderCanceled,
// Trade, OrderFilled. The processor stamps every one with the sequence
// of the command that produced it before handing it to the broadcaster.
type Event interface {
	eventSequence() Sequence
}

type OrderPlaced struct {
	Sequence Sequence
	OrderID  OrderID
	UserID   UserID
	Price    Price
	Quantity Quantity
	Side     Side
}

func (e OrderPlaced) eventSequence() Sequence { return e.Sequence }

type OrderCanceled struct {
	Sequence Sequence
	OrderID  OrderID
	Reason   CancelReason
}

func (e OrderCanceled) eventSequence() Sequence { return e.Sequence }

// Trade always carries the maker's resting price, never the taker's
// limit or the absence of one for a market order.
type Trade struct {
	Sequence     Sequence
	MakerOrderID OrderID
	TakerOrderID OrderID
	Price        Price
	Quantity     Quantity
	TakerSide    Side
}

func (e Trade) eventSequence() Sequence { return e.Sequence }

type OrderFilled struct {
	Sequence     Sequence
	OrderID      OrderID
	FilledQty    Quantity
	RemainingQty Quantity
}

func (e OrderFilled) eventSequence() Sequence { return e.Sequence }

// OrderLevel is an aggregated (price, total resting quantity) pair, used
// by Depth. Grounded on original_source/crates/engine-core/src/lib.rs's
// OrderLevel, which that implementation exposes via get_depth.
type OrderLevel struct {
	Price    Price
	Quantity Quantity
}
