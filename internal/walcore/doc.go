// Package walcore implements the matching core's write-ahead log: a
// single append-only file of length-prefixed, CRC-checked records, each
// carrying one accepted command's (sequence, command) tuple. Every
// accepted command is durable here before the orderbook is allowed to
// change.
package walcore
