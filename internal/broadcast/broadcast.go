package broadcast

import (
	"sync"
	"sync/atomic"

	"clobcore/internal/orderbook"
)

// Subscription is a single market-data feed handed back by Subscribe.
// Events never blocks its producer: a subscriber that falls behind has
// its oldest buffered events dropped rather than stalling the book.
type Subscription struct {
	id     int
	events chan orderbook.Event
	lagged atomic.Bool

	hub *Broadcaster
}

// Events is the channel callers receive market data on.
func (s *Subscription) Events() <-chan orderbook.Event { return s.events }

// Lagged reports whether this subscriber has ever had an event dropped
// on its behalf. It never clears itself; callers decide what to do about
// a lagging feed (reconnect, resync from a snapshot, alert).
func (s *Subscription) Lagged() bool { return s.lagged.Load() }

// Unsubscribe stops further delivery and releases the subscription slot.
func (s *Subscription) Unsubscribe() { s.hub.unsubscribe(s.id) }

// Broadcaster is the in-process hub every market-data consumer attaches
// to, including the optional Kafka sink. Publish is called exactly once
// per accepted command, from the processor's actor loop, with that
// command's events in sequence order.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]*Subscription
	nextID int
	buffer int
}

// New returns a Broadcaster whose subscribers each get a buffer of
// bufferSize events before they start lagging.
func New(bufferSize int) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[int]*Subscription),
		buffer: bufferSize,
	}
}

// Subscribe registers a new feed and returns it.
func (b *Broadcaster) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		events: make(chan orderbook.Event, b.buffer),
		hub:    b,
	}
	b.subs[sub.id] = sub
	return sub
}

func (b *Broadcaster) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		close(sub.events)
		delete(b.subs, id)
	}
}

// Publish delivers events to every current subscriber. A subscriber
// whose buffer is full has its oldest event dropped to make room for the
// new one, and is marked lagged; Publish itself never blocks regardless
// of how far behind a subscriber has fallen.
func (b *Broadcaster) Publish(events []orderbook.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		for _, ev := range events {
			b.deliver(sub, ev)
		}
	}
}

func (b *Broadcaster) deliver(sub *Subscription, ev orderbook.Event) {
	select {
	case sub.events <- ev:
		return
	default:
	}

	// Buffer is full: drop the oldest queued event to make room for the
	// new one, then mark the subscriber lagged.
	select {
	case <-sub.events:
	default:
	}
	select {
	case sub.events <- ev:
	default:
		// Another producer raced us and refilled the buffer; the new
		// event itself is the one dropped instead.
	}
	sub.lagged.Store(true)
}

// SubscriberCount reports the number of currently attached feeds, used
// by metrics and tests.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
