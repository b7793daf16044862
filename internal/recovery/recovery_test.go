package recovery

import (
	"path/filepath"
	"testing"

	"clobcore/internal/logging"
	"clobcore/internal/orderbook"
	"clobcore/internal/snapshotstore"
	"clobcore/internal/walcore"
)

func writeWAL(t *testing.T, path string, cmds []walcore.Command) {
	t.Helper()
	w, err := walcore.Open(path, walcore.FsyncNever)
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	for i, c := range cmds {
		if err := w.Append(uint64(i+1), c); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRecoverFromWALOnlyNoSnapshot(t *testing.T) {
	dir := t.TempDir()
	walPath := filepath.Join(dir, "wal.log")
	writeWAL(t, walPath, []walcore.Command{
		{Kind: walcore.CmdPlaceLimit, OrderID: 1, UserID: 10, Side: 0, Price: 100, Quantity: 5},
		{Kind: walcore.CmdPlaceLimit, OrderID: 2, UserID: 20, Side: 1, Price: 100, Quantity: 3},
	})

	result, err := Recover(walPath, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if result.FromSnapshot {
		t.Error("expected FromSnapshot=false with no store")
	}
	if result.NextSeq != 3 {
		t.Fatalf("next seq = %d, want 3", result.NextSeq)
	}
	asks, bids := result.Book.Depth(10)
	if len(asks) != 0 || len(bids) != 1 || bids[0] != (orderbook.OrderLevel{Price: 100, Quantity: 2}) {
		t.Fatalf("order 2 fills 3 of order 1's 5, book should hold one bid of 2 @100: asks=%v bids=%v", asks, bids)
	}
}

// TestSnapshotBoundedRecoveryMatchesFullReplay checks that recovering
// from a snapshot plus its WAL tail produces the exact same book as
// recovering from the full WAL alone.
func TestSnapshotBoundedRecoveryMatchesFullReplay(t *testing.T) {
	dir := t.TempDir()
	walPath := filepath.Join(dir, "wal.log")
	cmds := []walcore.Command{
		{Kind: walcore.CmdPlaceLimit, OrderID: 1, UserID: 10, Side: 0, Price: 100, Quantity: 5},
		{Kind: walcore.CmdPlaceLimit, OrderID: 2, UserID: 20, Side: 0, Price: 99, Quantity: 2},
		{Kind: walcore.CmdCancel, OrderID: 1, UserID: 10},
		{Kind: walcore.CmdPlaceLimit, OrderID: 3, UserID: 30, Side: 1, Price: 99, Quantity: 1},
	}
	writeWAL(t, walPath, cmds)

	full, err := Recover(walPath, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("full recover: %v", err)
	}

	store, err := snapshotstore.Open(filepath.Join(dir, "snap"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	// Snapshot state exactly as of sequence 2 (after the first two
	// places, before the cancel and the third place).
	snapBook := orderbook.NewBook()
	snapBook.PlaceLimit(1, 10, orderbook.Bid, 100, 5, 1)
	snapBook.PlaceLimit(2, 20, orderbook.Bid, 99, 2, 2)
	if err := store.Put(2, snapBook.Snapshot()); err != nil {
		t.Fatalf("put snapshot: %v", err)
	}

	bounded, err := Recover(walPath, store, logging.NewNop())
	if err != nil {
		t.Fatalf("bounded recover: %v", err)
	}
	if !bounded.FromSnapshot {
		t.Error("expected FromSnapshot=true")
	}
	if bounded.NextSeq != full.NextSeq {
		t.Fatalf("next seq = %d, want %d", bounded.NextSeq, full.NextSeq)
	}

	fullAsks, fullBids := full.Book.Depth(10)
	boundedAsks, boundedBids := bounded.Book.Depth(10)
	if len(fullAsks) != len(boundedAsks) || len(fullBids) != len(boundedBids) {
		t.Fatalf("depth mismatch: full=(%v,%v) bounded=(%v,%v)", fullAsks, fullBids, boundedAsks, boundedBids)
	}
	for i := range fullBids {
		if fullBids[i] != boundedBids[i] {
			t.Errorf("bid level %d = %v, want %v", i, boundedBids[i], fullBids[i])
		}
	}
}
