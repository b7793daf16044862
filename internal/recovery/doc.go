// Package recovery rebuilds an orderbook.Book and the next sequence
// number to assign, by loading the latest snapshot (if any) and then
// replaying only the WAL records after it.
//
// Grounded on integration.go's WALIntegration.ReplayFromSnapshot, which
// already separates "replay everything" from "replay only what a
// snapshot didn't cover" via a snapshotSeq cutoff; this package
// generalizes that cutoff from a segment-index scan to walcore.Replay
// plus an actual snapshotstore.
package recovery
