package broadcast

import (
	"testing"

	"clobcore/internal/orderbook"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := New(4)
	sub := b.Subscribe()

	b.Publish([]orderbook.Event{
		orderbook.OrderPlaced{Sequence: 1, OrderID: 10},
	})

	select {
	case ev := <-sub.Events():
		placed, ok := ev.(orderbook.OrderPlaced)
		if !ok || placed.OrderID != 10 {
			t.Fatalf("got %#v, want OrderPlaced{OrderID: 10}", ev)
		}
	default:
		t.Fatal("expected an event to be delivered")
	}
	if sub.Lagged() {
		t.Error("subscriber should not be lagged")
	}
}

func TestPublishDropsOldestWhenFull(t *testing.T) {
	b := New(2)
	sub := b.Subscribe()

	for i := 1; i <= 5; i++ {
		b.Publish([]orderbook.Event{orderbook.OrderPlaced{Sequence: orderbook.Sequence(i), OrderID: orderbook.OrderID(i)}})
	}

	if !sub.Lagged() {
		t.Fatal("subscriber should be marked lagged after overflowing its buffer")
	}

	var got []orderbook.OrderID
	for i := 0; i < 2; i++ {
		ev := <-sub.Events()
		got = append(got, ev.(orderbook.OrderPlaced).OrderID)
	}
	// The buffer holds 2 slots; the oldest entries are dropped on
	// overflow, so what survives is the two most recent publishes.
	if got[0] != 4 || got[1] != 5 {
		t.Fatalf("got %v, want [4 5]", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New(1)
	sub := b.Subscribe()
	sub.Unsubscribe()

	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected the events channel to be closed")
	}
	if b.SubscriberCount() != 0 {
		t.Fatalf("subscriber count = %d, want 0", b.SubscriberCount())
	}
}
