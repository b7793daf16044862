// Package broadcast fans out orderbook.Event values to market-data
// subscribers. This is deliberately lossy: a slow subscriber has events
// dropped for it, and is never allowed to block the processor's
// command-handling path.
//
// Grounded on jobs/broadcaster/broadcaster.go for the shape of a
// periodic fan-out job talking to Kafka, generalized from that draft's
// single outbox-scanning consumer to an in-process pub/sub hub that can
// hold any number of bounded subscribers, one of which may be a Kafka
// sink.
package broadcast
