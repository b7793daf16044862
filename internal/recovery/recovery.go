package recovery

import (
	"clobcore/internal/logging"
	"clobcore/internal/orderbook"
	"clobcore/internal/snapshotstore"
	"clobcore/internal/walcore"
)

// Result is what Recover hands back to cmd/engine: a ready-to-use Book
// and the sequence the processor should assign to the next accepted
// command.
type Result struct {
	Book         *orderbook.Book
	NextSeq      orderbook.Sequence
	FromSnapshot bool
	ReplayedWAL  int
}

// Recover rebuilds a Book from store's latest snapshot, if any, plus
// every WAL record after that snapshot's sequence. store may be nil, in
// which case the whole WAL is replayed — correct, just slower to start.
func Recover(walPath string, store *snapshotstore.Store, log *logging.Logger) (Result, error) {
	var book *orderbook.Book
	var cutoff orderbook.Sequence
	fromSnapshot := false

	if store != nil {
		seq, orders, ok, err := store.Latest()
		if err != nil {
			return Result{}, err
		}
		if ok {
			book = orderbook.RestoreBook(orders)
			cutoff = seq
			fromSnapshot = true
			log.Info("recovery: loaded snapshot", logging.Uint64("sequence", uint64(seq)), logging.Int("live_orders", len(orders)))
		}
	}
	if book == nil {
		book = orderbook.NewBook()
	}

	maxSeq := cutoff
	replayed := 0
	wlResult, err := walcore.Replay(walPath, func(rec walcore.Record) {
		seq := orderbook.Sequence(rec.Sequence)
		if seq <= cutoff {
			// Already reflected in the loaded snapshot.
			return
		}
		if reject := applyCommand(book, seq, rec.Command); reject != orderbook.RejectNone {
			fields := []logging.Field{logging.Uint64("sequence", uint64(seq)), logging.Uint64("order_id", rec.Command.OrderID), logging.String("reason", reject.String())}
			if rec.Command.Kind == walcore.CmdPlaceMarket && reject == orderbook.RejectNoLiquidity {
				// The processor logs no-liquidity market rejects on purpose.
				log.Debug("recovery: replayed command rejected, skipped", fields...)
			} else {
				log.Warn("recovery: replayed command rejected, skipped", fields...)
			}
		}
		maxSeq = seq
		replayed++
	})
	if err != nil {
		return Result{}, err
	}
	if orderbook.Sequence(wlResult.LastSequence) > maxSeq {
		maxSeq = orderbook.Sequence(wlResult.LastSequence)
	}
	if wlResult.TruncatedBytes > 0 {
		log.Warn("recovery: WAL had a torn tail, truncated", logging.Int("bytes", int(wlResult.TruncatedBytes)))
	}

	log.Info("recovery: complete",
		logging.Uint64("next_sequence", uint64(maxSeq)+1),
		logging.Int("replayed_records", replayed),
	)

	return Result{Book: book, NextSeq: maxSeq + 1, FromSnapshot: fromSnapshot, ReplayedWAL: replayed}, nil
}

func applyCommand(book *orderbook.Book, seq orderbook.Sequence, cmd walcore.Command) orderbook.RejectReason {
	orderID := orderbook.OrderID(cmd.OrderID)
	userID := orderbook.UserID(cmd.UserID)
	side := orderbook.Side(cmd.Side)

	var reject orderbook.RejectReason
	switch cmd.Kind {
	case walcore.CmdPlaceLimit:
		_, reject = book.PlaceLimit(orderID, userID, side, orderbook.Price(cmd.Price), orderbook.Quantity(cmd.Quantity), seq)
	case walcore.CmdPlaceMarket:
		_, reject = book.PlaceMarket(orderID, userID, side, orderbook.Quantity(cmd.Quantity), seq)
	case walcore.CmdCancel:
		_, reject = book.Cancel(orderID, userID, seq)
	}
	return reject
}
