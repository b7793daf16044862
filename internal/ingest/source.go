package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"

	"clobcore/internal/logging"
	"clobcore/internal/orderbook"
)

// Submitter is the subset of *processor.Processor this package depends
// on. Defined here instead of imported to keep ingest from depending on
// processor's full surface (and to avoid a needless import of the actor
// plumbing for something that only ever calls three methods on it).
type Submitter interface {
	PlaceLimit(ctx context.Context, orderID orderbook.OrderID, userID orderbook.UserID, side orderbook.Side, price orderbook.Price, qty orderbook.Quantity) ([]orderbook.Event, orderbook.RejectReason, error)
	PlaceMarket(ctx context.Context, orderID orderbook.OrderID, userID orderbook.UserID, side orderbook.Side, qty orderbook.Quantity) ([]orderbook.Event, orderbook.RejectReason, error)
	Cancel(ctx context.Context, orderID orderbook.OrderID, userID orderbook.UserID) ([]orderbook.Event, orderbook.RejectReason, error)
}

// inboundCommand is the JSON shape this repo accepts on its commands
// topic. Side is "bid" or "ask"; type is "place_limit", "place_market",
// or "cancel".
type inboundCommand struct {
	Type     string `json:"type"`
	OrderID  uint64 `json:"order_id"`
	UserID   uint64 `json:"user_id"`
	Side     string `json:"side"`
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
}

// Source consumes commands from a Kafka topic and submits them to a
// Processor. It is entirely optional: a deployment driving the engine
// over direct RPC calls never constructs one.
type Source struct {
	reader    *kafka.Reader
	submitter Submitter
	log       *logging.Logger
}

// NewSource connects a reader to partition 0 of topic on brokers,
// starting at the end of the partition (kafka.LastOffset), so only
// messages written after the reader starts are consumed, matching
// order-reader/consumer.go's NewReader.
func NewSource(brokers []string, topic string, submitter Submitter, log *logging.Logger) *Source {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	return &Source{reader: reader, submitter: submitter, log: log}
}

// Run reads and submits commands until ctx is canceled or the reader is
// closed.
func (s *Source) Run(ctx context.Context) {
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			s.log.Error("ingest: read message", logging.Err(err))
			continue
		}

		var cmd inboundCommand
		if err := json.Unmarshal(msg.Value, &cmd); err != nil {
			s.log.Error("ingest: unmarshal command", logging.Err(err))
			continue
		}
		s.submit(ctx, cmd)
	}
}

func (s *Source) submit(ctx context.Context, cmd inboundCommand) {
	side := orderbook.Bid
	if cmd.Side == "ask" {
		side = orderbook.Ask
	}

	var reject orderbook.RejectReason
	var err error
	switch cmd.Type {
	case "place_limit":
		_, reject, err = s.submitter.PlaceLimit(ctx, orderbook.OrderID(cmd.OrderID), orderbook.UserID(cmd.UserID), side, orderbook.Price(cmd.Price), orderbook.Quantity(cmd.Quantity))
	case "place_market":
		_, reject, err = s.submitter.PlaceMarket(ctx, orderbook.OrderID(cmd.OrderID), orderbook.UserID(cmd.UserID), side, orderbook.Quantity(cmd.Quantity))
	case "cancel":
		_, reject, err = s.submitter.Cancel(ctx, orderbook.OrderID(cmd.OrderID), orderbook.UserID(cmd.UserID))
	default:
		s.log.Warn("ingest: unknown command type", logging.String("type", cmd.Type))
		return
	}

	if err != nil {
		s.log.Error("ingest: submit failed", logging.Uint64("order_id", cmd.OrderID), logging.Err(err))
		return
	}
	if reject != orderbook.RejectNone {
		s.log.Debug("ingest: command rejected", logging.Uint64("order_id", cmd.OrderID), logging.String("reason", reject.String()))
	}
}

// Close closes the underlying Kafka reader.
func (s *Source) Close() error {
	return s.reader.Close()
}
