package processor

import "clobcore/internal/orderbook"

type requestKind uint8

const (
	reqPlaceLimit requestKind = iota
	reqPlaceMarket
	reqCancel
	reqDepth
)

// request is one entry in the actor's inbox. Grounded on processor.rs's
// Command enum; Go has no enum-with-payload, so this repo uses one
// struct with a kind tag and the reply channel every variant carries.
type request struct {
	kind requestKind

	orderID orderbook.OrderID
	userID  orderbook.UserID
	side    orderbook.Side
	price   orderbook.Price
	qty     orderbook.Quantity
	limit   int

	reply chan Reply
}

// Reply is what every request gets back, with only the fields relevant
// to its kind populated.
type Reply struct {
	Events []orderbook.Event
	Reject orderbook.RejectReason
	Asks   []orderbook.OrderLevel
	Bids   []orderbook.OrderLevel
	Err    error
}
