package processor

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"clobcore/internal/broadcast"
	"clobcore/internal/logging"
	"clobcore/internal/metrics"
	"clobcore/internal/orderbook"
	"clobcore/internal/snapshotstore"
	"clobcore/internal/walcore"
)

// errQueueFull is returned to a submitter immediately, without ever
// enqueuing its request, when the inbox is already at capacity. It never
// touches the sequence counter or the WAL.
var errQueueFull = errors.New("processor: inbox full")

// Processor is the single actor owning one instrument's Book. Every
// exported method enqueues a request and blocks for its reply; the only
// goroutine that ever touches the Book is the one running Run.
type Processor struct {
	book        *orderbook.Book
	wal         *walcore.Writer
	broadcaster *broadcast.Broadcaster
	metrics     *metrics.Registry
	log         *logging.Logger
	store       *snapshotstore.Store

	snapshotEvery int
	sinceSnapshot int

	nextSeq orderbook.Sequence
	inbox   chan request

	failed error
}

// New constructs a Processor. startSeq is the sequence recovery computed
// (one past the highest sequence seen in the latest snapshot plus
// replayed WAL tail); inboxSize bounds how many requests may queue
// before further submissions fail with errQueueFull. store may be nil, which disables
// periodic snapshotting entirely: recovery then always replays the WAL
// from the beginning, which is slower to start but equally correct.
func New(book *orderbook.Book, wal *walcore.Writer, b *broadcast.Broadcaster, reg *metrics.Registry, log *logging.Logger, store *snapshotstore.Store, snapshotEvery int, startSeq orderbook.Sequence, inboxSize int) *Processor {
	return &Processor{
		book:          book,
		wal:           wal,
		broadcaster:   b,
		metrics:       reg,
		log:           log,
		store:         store,
		snapshotEvery: snapshotEvery,
		nextSeq:       startSeq,
		inbox:         make(chan request, inboxSize),
	}
}

// Run drains the inbox until ctx is canceled, then handles whatever
// requests are still queued before returning. It must run in exactly one
// goroutine for the lifetime of the Processor.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case req := <-p.inbox:
					p.handle(req)
				default:
					return
				}
			}
		case req := <-p.inbox:
			p.handle(req)
		}
	}
}

// submit enqueues req and blocks for its reply. Enqueuing itself never
// blocks: a full inbox is surfaced to the caller immediately as
// errQueueFull rather than applying backpressure, so a burst of
// submitters can never stall each other behind a full channel.
func (p *Processor) submit(ctx context.Context, req request) (Reply, error) {
	req.reply = make(chan Reply, 1)
	select {
	case p.inbox <- req:
	default:
		return Reply{}, errQueueFull
	}
	select {
	case rep := <-req.reply:
		return rep, rep.Err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// PlaceLimit submits a limit order and blocks for its result.
func (p *Processor) PlaceLimit(ctx context.Context, orderID orderbook.OrderID, userID orderbook.UserID, side orderbook.Side, price orderbook.Price, qty orderbook.Quantity) ([]orderbook.Event, orderbook.RejectReason, error) {
	rep, err := p.submit(ctx, request{kind: reqPlaceLimit, orderID: orderID, userID: userID, side: side, price: price, qty: qty})
	return rep.Events, rep.Reject, err
}

// PlaceMarket submits a market order and blocks for its result.
func (p *Processor) PlaceMarket(ctx context.Context, orderID orderbook.OrderID, userID orderbook.UserID, side orderbook.Side, qty orderbook.Quantity) ([]orderbook.Event, orderbook.RejectReason, error) {
	rep, err := p.submit(ctx, request{kind: reqPlaceMarket, orderID: orderID, userID: userID, side: side, qty: qty})
	return rep.Events, rep.Reject, err
}

// Cancel submits a cancel request and blocks for its result.
func (p *Processor) Cancel(ctx context.Context, orderID orderbook.OrderID, userID orderbook.UserID) ([]orderbook.Event, orderbook.RejectReason, error) {
	rep, err := p.submit(ctx, request{kind: reqCancel, orderID: orderID, userID: userID})
	return rep.Events, rep.Reject, err
}

// Depth is a read-only query; it never touches the WAL, the broadcaster,
// or the sequence counter, but it is still routed through the actor so
// it never observes a book mid-mutation.
func (p *Processor) Depth(ctx context.Context, limit int) (asks, bids []orderbook.OrderLevel, err error) {
	rep, err := p.submit(ctx, request{kind: reqDepth, limit: limit})
	return rep.Asks, rep.Bids, err
}

func (p *Processor) handle(req request) {
	if req.kind == reqDepth {
		asks, bids := p.book.Depth(req.limit)
		req.reply <- Reply{Asks: asks, Bids: bids}
		return
	}

	// A WAL append failure is fatal: once one has happened, this engine can
	// no longer guarantee durability for anything it accepts, so every
	// subsequent command is rejected instead of silently risking data loss.
	if p.failed != nil {
		p.metrics.OrdersRejected.WithLabelValues(orderbook.RejectShuttingDown.String()).Inc()
		req.reply <- Reply{Reject: orderbook.RejectShuttingDown}
		return
	}

	seq := p.nextSeq
	var cmd walcore.Command
	var reject orderbook.RejectReason

	switch req.kind {
	case reqPlaceLimit:
		reject = p.book.PrecheckPlace(req.orderID, req.side, req.qty, false)
		cmd = walcore.Command{Kind: walcore.CmdPlaceLimit, OrderID: uint64(req.orderID), UserID: uint64(req.userID), Side: uint8(req.side), Price: uint64(req.price), Quantity: uint64(req.qty)}
	case reqPlaceMarket:
		reject = p.book.PrecheckPlace(req.orderID, req.side, req.qty, true)
		cmd = walcore.Command{Kind: walcore.CmdPlaceMarket, OrderID: uint64(req.orderID), UserID: uint64(req.userID), Side: uint8(req.side), Quantity: uint64(req.qty)}
	case reqCancel:
		reject = p.book.PrecheckCancel(req.orderID, req.userID)
		cmd = walcore.Command{Kind: walcore.CmdCancel, OrderID: uint64(req.orderID), UserID: uint64(req.userID)}
	}

	// One reject reason is an exception to the general "a reject never
	// touches the WAL or the sequence counter" rule: a market order
	// rejected for lack of opposite-side liquidity is still sequenced and
	// WAL-logged, even though it never reaches the book. Every other
	// reject reason (duplicate id, zero quantity, unknown or unowned
	// order) returns here before anything durable has happened, since
	// nothing has touched the book yet and there is nothing to make
	// durable.
	loggableReject := req.kind == reqPlaceMarket && reject == orderbook.RejectNoLiquidity
	if reject != orderbook.RejectNone && !loggableReject {
		p.metrics.OrdersRejected.WithLabelValues(reject.String()).Inc()
		req.reply <- Reply{Reject: reject}
		return
	}

	// Log before apply: a command is durable before it is ever reflected
	// in the in-memory book, so a WAL failure here leaves the book exactly
	// as it was for every command accepted so far.
	start := time.Now()
	appendErr := p.wal.Append(uint64(seq), cmd)
	p.metrics.WALAppendSecs.Observe(time.Since(start).Seconds())
	if appendErr != nil {
		p.failed = appendErr
		p.log.Error("processor: WAL append failed, stopping", logging.Uint64("sequence", uint64(seq)), logging.Err(appendErr))
		req.reply <- Reply{Err: errors.Wrap(appendErr, "processor: wal append")}
		return
	}

	var events []orderbook.Event
	if loggableReject {
		p.metrics.OrdersRejected.WithLabelValues(reject.String()).Inc()
	} else {
		switch req.kind {
		case reqPlaceLimit:
			events, _ = p.book.PlaceLimit(req.orderID, req.userID, req.side, req.price, req.qty, seq)
		case reqPlaceMarket:
			events, _ = p.book.PlaceMarket(req.orderID, req.userID, req.side, req.qty, seq)
		case reqCancel:
			events, _ = p.book.Cancel(req.orderID, req.userID, seq)
		}
		p.recordEventMetrics(req.kind, events)
		p.broadcaster.Publish(events)
	}

	p.nextSeq++
	p.metrics.CurrentSequence.Set(float64(seq))

	req.reply <- Reply{Events: events, Reject: reject}
	p.maybeSnapshot(seq)
}

func (p *Processor) recordEventMetrics(kind requestKind, events []orderbook.Event) {
	if kind != reqCancel {
		p.metrics.OrdersPlaced.Inc()
	}
	for _, ev := range events {
		switch ev.(type) {
		case orderbook.Trade:
			p.metrics.TradesExecuted.Inc()
		case orderbook.OrderCanceled:
			p.metrics.OrdersCanceled.Inc()
		}
	}
}

// maybeSnapshot persists the live order set once every snapshotEvery
// accepted commands, run only between commands so it never observes a
// book mid-mutation. A snapshot failure is logged but never fail-stops
// the processor: it only widens the WAL tail the next recovery has to
// replay.
func (p *Processor) maybeSnapshot(seq orderbook.Sequence) {
	if p.store == nil || p.snapshotEvery <= 0 {
		return
	}
	p.sinceSnapshot++
	if p.sinceSnapshot < p.snapshotEvery {
		return
	}
	p.sinceSnapshot = 0

	if err := p.store.Put(seq, p.book.Snapshot()); err != nil {
		p.log.Warn("processor: snapshot failed", logging.Uint64("sequence", uint64(seq)), logging.Err(err))
		return
	}
	p.metrics.SnapshotsTaken.Inc()
}
