// Package processor serializes every command into one actor goroutine,
// so the orderbook.Book it owns is never touched concurrently. It is the
// only thing in this repo that assigns sequence numbers, appends to the
// WAL, and publishes to the broadcaster, and it does all three in that
// order for every accepted command.
//
// Grounded on original_source/crates/engine-core/src/processor.rs's
// MarketProcessor: a command enum delivered over a channel, handled one
// at a time by a single owning goroutine, replying over a per-request
// channel (the Go equivalent of processor.rs's
// tokio::sync::oneshot::Sender).
package processor
