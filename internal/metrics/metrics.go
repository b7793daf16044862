// Package metrics registers the Prometheus collectors that observe the
// processor and WAL without participating in their correctness: nothing
// in this repo's command-handling path depends on whether these are
// scraped.
//
// prometheus/client_golang otherwise only arrives as an indirect,
// pebble-pulled dependency; this package gives it a direct, exercised
// home.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry collects every counter/gauge/histogram this repo observes.
type Registry struct {
	OrdersPlaced    prometheus.Counter
	OrdersCanceled  prometheus.Counter
	OrdersRejected  *prometheus.CounterVec
	TradesExecuted  prometheus.Counter
	CurrentSequence prometheus.Gauge
	WALAppendSecs   prometheus.Histogram
	SnapshotsTaken  prometheus.Counter
}

// New registers every collector against reg and returns the handles used
// by the processor, which also times its own WAL appends.
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		OrdersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "clobcore_orders_placed_total",
			Help: "Accepted PlaceLimit and PlaceMarket commands.",
		}),
		OrdersCanceled: factory.NewCounter(prometheus.CounterOpts{
			Name: "clobcore_orders_canceled_total",
			Help: "Orders removed from the book by cancel or self-trade prevention.",
		}),
		OrdersRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clobcore_orders_rejected_total",
			Help: "Rejected commands, labeled by reason.",
		}, []string{"reason"}),
		TradesExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "clobcore_trades_total",
			Help: "Executed trades.",
		}),
		CurrentSequence: factory.NewGauge(prometheus.GaugeOpts{
			Name: "clobcore_sequence",
			Help: "Sequence of the most recently committed command.",
		}),
		WALAppendSecs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "clobcore_wal_append_seconds",
			Help:    "Latency of WAL append+fsync.",
			Buckets: prometheus.DefBuckets,
		}),
		SnapshotsTaken: factory.NewCounter(prometheus.CounterOpts{
			Name: "clobcore_snapshots_total",
			Help: "Snapshots persisted to the snapshot store.",
		}),
	}
}
