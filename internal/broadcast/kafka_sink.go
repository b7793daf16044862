package broadcast

import (
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"

	"clobcore/internal/logging"
	"clobcore/internal/orderbook"
)

// wireEvent is the JSON envelope published to Kafka. Grounded on
// jobs/broadcaster/broadcaster.go's Event{V,Type,ID,Seq}, widened with
// the extra fields each concrete orderbook.Event carries so a consumer
// can reconstruct the original event from the envelope alone.
type wireEvent struct {
	V            int    `json:"v"`
	Type         string `json:"type"`
	Sequence     uint64 `json:"seq"`
	OrderID      uint64 `json:"order_id,omitempty"`
	UserID       uint64 `json:"user_id,omitempty"`
	Price        uint64 `json:"price,omitempty"`
	Quantity     uint64 `json:"quantity,omitempty"`
	Side         string `json:"side,omitempty"`
	Reason       string `json:"reason,omitempty"`
	MakerOrderID uint64 `json:"maker_order_id,omitempty"`
	TakerOrderID uint64 `json:"taker_order_id,omitempty"`
	FilledQty    uint64 `json:"filled_qty,omitempty"`
	RemainingQty uint64 `json:"remaining_qty,omitempty"`
}

func toWireEvent(ev orderbook.Event) wireEvent {
	switch e := ev.(type) {
	case orderbook.OrderPlaced:
		return wireEvent{
			V: 1, Type: "order_placed", Sequence: uint64(e.Sequence),
			OrderID: uint64(e.OrderID), UserID: uint64(e.UserID),
			Price: uint64(e.Price), Quantity: uint64(e.Quantity), Side: e.Side.String(),
		}
	case orderbook.OrderCanceled:
		return wireEvent{
			V: 1, Type: "order_canceled", Sequence: uint64(e.Sequence),
			OrderID: uint64(e.OrderID), Reason: e.Reason.String(),
		}
	case orderbook.Trade:
		return wireEvent{
			V: 1, Type: "trade", Sequence: uint64(e.Sequence),
			MakerOrderID: uint64(e.MakerOrderID), TakerOrderID: uint64(e.TakerOrderID),
			Price: uint64(e.Price), Quantity: uint64(e.Quantity), Side: e.TakerSide.String(),
		}
	case orderbook.OrderFilled:
		return wireEvent{
			V: 1, Type: "order_filled", Sequence: uint64(e.Sequence),
			OrderID: uint64(e.OrderID), FilledQty: uint64(e.FilledQty), RemainingQty: uint64(e.RemainingQty),
		}
	default:
		return wireEvent{V: 1, Type: "unknown"}
	}
}

// KafkaSink republishes every event it receives from its own
// Subscription onto a Kafka topic. It is itself just another lossy
// subscriber of the Broadcaster: if Kafka falls behind, the sink's
// subscription buffer drops events the same as any other subscriber,
// rather than applying backpressure to the processor.
//
// Grounded on jobs/broadcaster/broadcaster.go's sarama.SyncProducer
// usage (return-successes, wait-for-all, bounded retries); this sink
// uses AsyncProducer instead since it already tolerates loss and a
// synchronous round trip per event would just reintroduce the
// backpressure this package exists to avoid.
type KafkaSink struct {
	producer sarama.AsyncProducer
	topic    string
	log      *logging.Logger
	done     chan struct{}
}

// NewKafkaSink connects to brokers and starts republishing sub's events
// to topic until sub is unsubscribed.
func NewKafkaSink(brokers []string, topic string, sub *Subscription, log *logging.Logger) (*KafkaSink, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "broadcast: new kafka producer")
	}

	sink := &KafkaSink{producer: producer, topic: topic, log: log, done: make(chan struct{})}
	go sink.drainErrors()
	go sink.run(sub)
	return sink, nil
}

func (k *KafkaSink) run(sub *Subscription) {
	defer close(k.done)
	for ev := range sub.Events() {
		payload, err := json.Marshal(toWireEvent(ev))
		if err != nil {
			k.log.Error("broadcast: marshal event for kafka", logging.Err(err))
			continue
		}
		k.producer.Input() <- &sarama.ProducerMessage{
			Topic: k.topic,
			Value: sarama.ByteEncoder(payload),
		}
	}
}

func (k *KafkaSink) drainErrors() {
	for err := range k.producer.Errors() {
		k.log.Warn("broadcast: kafka publish failed", logging.Err(err.Err))
	}
}

// Close waits for the republishing loop to end and then closes the
// underlying producer. It does not unsubscribe from the Broadcaster and
// blocks until the subscription is closed; callers should call
// Subscription.Unsubscribe first so run's range loop exits and drains.
func (k *KafkaSink) Close() error {
	<-k.done
	return errors.Wrap(k.producer.Close(), "broadcast: close kafka producer")
}
