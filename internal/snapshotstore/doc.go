// Package snapshotstore persists periodic, sequence-keyed snapshots of
// the live order set to a pebble database, so that recovery can bound
// WAL replay to the records after the latest snapshot instead of
// replaying the WAL from the beginning of time. Snapshotting is purely
// an optimization: a store with zero snapshots degrades recovery to a
// full WAL replay, never to a failure.
//
// Grounded on infra/wal/exit/wal.go's ExitWAL, the only pebble-backed
// store in the pack: this package keeps its Open/Close/fixed-width
// binary encoding shape and its pebble.Sync write option, generalized
// from a single key per outbox entry to a single key per snapshot
// sequence holding the whole live order set.
package snapshotstore
