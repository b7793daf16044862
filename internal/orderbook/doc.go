// Package orderbook implements the in-memory price-time-priority matching
// core for one instrument: two price-indexed ladders, an arena of order
// records addressed by stable handles, and the order-id index that maps a
// client-supplied order id back to its arena slot.
//
// Everything here is a pure function of its inputs. There is no I/O, no
// goroutine, and no lock: callers (the processor, in this repo) are
// responsible for ensuring that a single goroutine owns a *Book at a time.
package orderbook
