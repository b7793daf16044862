package processor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"clobcore/internal/broadcast"
	"clobcore/internal/logging"
	"clobcore/internal/metrics"
	"clobcore/internal/orderbook"
	"clobcore/internal/walcore"
)

func newTestProcessor(t *testing.T) (*Processor, context.Context) {
	t.Helper()
	wal, err := walcore.Open(filepath.Join(t.TempDir(), "wal.log"), walcore.FsyncNever)
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	t.Cleanup(func() { wal.Close() })

	reg := metrics.New(prometheus.NewRegistry())
	p := New(orderbook.NewBook(), wal, broadcast.New(16), reg, logging.NewNop(), nil, 0, 1, 16)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go p.Run(ctx)

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel2)
	return p, ctx2
}

func TestPlaceLimitAssignsSequenceAndPublishes(t *testing.T) {
	p, ctx := newTestProcessor(t)
	sub := p.broadcaster.Subscribe()

	events, reject, err := p.PlaceLimit(ctx, 1, 10, orderbook.Bid, 100, 5)
	if err != nil {
		t.Fatalf("place limit: %v", err)
	}
	if reject != orderbook.RejectNone {
		t.Fatalf("reject = %v, want none", reject)
	}
	if len(events) != 1 {
		t.Fatalf("events = %v, want one OrderPlaced", events)
	}

	select {
	case ev := <-sub.Events():
		if _, ok := ev.(orderbook.OrderPlaced); !ok {
			t.Fatalf("published %#v, want OrderPlaced", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestDuplicateOrderIDRejectedWithoutConsumingSequence(t *testing.T) {
	p, ctx := newTestProcessor(t)

	if _, reject, err := p.PlaceLimit(ctx, 1, 10, orderbook.Bid, 100, 5); err != nil || reject != orderbook.RejectNone {
		t.Fatalf("first place: reject=%v err=%v", reject, err)
	}
	_, reject, err := p.PlaceLimit(ctx, 1, 10, orderbook.Bid, 100, 5)
	if err != nil {
		t.Fatalf("second place: %v", err)
	}
	if reject != orderbook.RejectDuplicateOrderID {
		t.Fatalf("reject = %v, want duplicate", reject)
	}

	events, _, err := p.PlaceLimit(ctx, 2, 10, orderbook.Bid, 101, 1)
	if err != nil {
		t.Fatalf("third place: %v", err)
	}
	placed := events[0].(orderbook.OrderPlaced)
	if placed.Sequence != 2 {
		t.Fatalf("sequence = %d, want 2 (the rejected command must not have consumed sequence 2)", placed.Sequence)
	}
}

func TestMarketOrderNoLiquidityConsumesSequence(t *testing.T) {
	p, ctx := newTestProcessor(t)

	events, reject, err := p.PlaceMarket(ctx, 1, 10, orderbook.Bid, 5)
	if err != nil {
		t.Fatalf("place market: %v", err)
	}
	if reject != orderbook.RejectNoLiquidity {
		t.Fatalf("reject = %v, want no liquidity", reject)
	}
	if len(events) != 0 {
		t.Fatalf("events = %v, want none", events)
	}

	placedEvents, _, err := p.PlaceLimit(ctx, 2, 10, orderbook.Bid, 101, 1)
	if err != nil {
		t.Fatalf("place limit: %v", err)
	}
	placed := placedEvents[0].(orderbook.OrderPlaced)
	if placed.Sequence != 2 {
		t.Fatalf("sequence = %d, want 2 (the no-liquidity market reject must consume sequence 1)", placed.Sequence)
	}
}

func TestQueueFullSurfacedImmediately(t *testing.T) {
	wal, err := walcore.Open(filepath.Join(t.TempDir(), "wal.log"), walcore.FsyncNever)
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	defer wal.Close()

	reg := metrics.New(prometheus.NewRegistry())
	// inboxSize 0 and Run never started: the inbox can never drain, so the
	// very first submission finds it already at capacity.
	p := New(orderbook.NewBook(), wal, broadcast.New(16), reg, logging.NewNop(), nil, 0, 1, 0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, _, err := p.PlaceLimit(ctx, 1, 10, orderbook.Bid, 100, 5); err != errQueueFull {
		t.Fatalf("err = %v, want errQueueFull", err)
	}
}

func TestShuttingDownRejectsAfterWALFailure(t *testing.T) {
	p, ctx := newTestProcessor(t)

	p.wal.Close()
	if _, _, err := p.PlaceLimit(ctx, 1, 10, orderbook.Bid, 100, 5); err == nil {
		t.Fatal("expected the WAL append against a closed file to fail")
	}

	_, reject, err := p.PlaceLimit(ctx, 2, 10, orderbook.Bid, 100, 5)
	if err != nil {
		t.Fatalf("second place: %v", err)
	}
	if reject != orderbook.RejectShuttingDown {
		t.Fatalf("reject = %v, want RejectShuttingDown", reject)
	}
}

func TestCancelThenQueryDepth(t *testing.T) {
	p, ctx := newTestProcessor(t)

	if _, _, err := p.PlaceLimit(ctx, 1, 10, orderbook.Ask, 100, 5); err != nil {
		t.Fatalf("place: %v", err)
	}
	asks, _, err := p.Depth(ctx, 10)
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if len(asks) != 1 || asks[0].Quantity != 5 {
		t.Fatalf("asks = %+v, want one level of 5", asks)
	}

	if _, reject, err := p.Cancel(ctx, 1, 10); err != nil || reject != orderbook.RejectNone {
		t.Fatalf("cancel: reject=%v err=%v", reject, err)
	}
	asks, _, err = p.Depth(ctx, 10)
	if err != nil {
		t.Fatalf("depth after cancel: %v", err)
	}
	if len(asks) != 0 {
		t.Fatalf("asks = %+v, want empty after cancel", asks)
	}
}
