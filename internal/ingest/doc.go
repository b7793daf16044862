// Package ingest optionally feeds commands into the processor from a
// Kafka topic, for deployments where orders arrive over a shared bus
// instead of (or alongside) a direct RPC transport.
//
// Grounded on
// MuhammadChandra19-exchange/services/matching-engine/internal/usecase/order-reader/consumer.go's
// Reader: a kafka.Reader wrapped with JSON decoding and structured
// logging on every message and error path.
package ingest
