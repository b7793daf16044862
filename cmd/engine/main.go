// Command engine runs one instrument's matching core: it recovers state
// from the snapshot store and WAL, then serves commands through the
// processor for the lifetime of the process.
//
// Grounded on cmd/server/main.go's wiring order (open WAL, replay,
// construct the service, start background jobs, serve, block) with the
// gRPC transport dropped per DESIGN.md and a Prometheus metrics endpoint
// added in its place.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clobcore/internal/broadcast"
	"clobcore/internal/config"
	"clobcore/internal/ingest"
	"clobcore/internal/logging"
	"clobcore/internal/metrics"
	"clobcore/internal/processor"
	"clobcore/internal/recovery"
	"clobcore/internal/snapshotstore"
	"clobcore/internal/walcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var store *snapshotstore.Store
	if cfg.SnapshotStorePath != "" {
		store, err = snapshotstore.Open(cfg.SnapshotStorePath)
		if err != nil {
			log.Error("engine: open snapshot store", logging.Err(err))
			os.Exit(1)
		}
		defer store.Close()
	}

	result, err := recovery.Recover(cfg.WALPath, store, log)
	if err != nil {
		log.Error("engine: recovery failed", logging.Err(err))
		os.Exit(1)
	}
	log.Info("engine: recovered",
		logging.Uint64("next_sequence", uint64(result.NextSeq)),
		logging.Int("replayed_records", result.ReplayedWAL),
	)

	wal, err := walcore.Open(cfg.WALPath, cfg.FsyncMode)
	if err != nil {
		log.Error("engine: open wal", logging.Err(err))
		os.Exit(1)
	}
	defer wal.Close()

	bc := broadcast.New(cfg.BroadcastBufferSize)
	proc := processor.New(result.Book, wal, bc, m, log, store, cfg.SnapshotIntervalCommands, result.NextSeq, cfg.ProcessorInboxSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go proc.Run(ctx)

	var kafkaSink *broadcast.KafkaSink
	var kafkaSource *ingest.Source
	if len(cfg.KafkaBrokers) > 0 {
		sub := bc.Subscribe()
		kafkaSink, err = broadcast.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaEventsTopic, sub, log)
		if err != nil {
			log.Error("engine: kafka sink unavailable, continuing without it", logging.Err(err))
			sub.Unsubscribe()
		} else {
			// Defers run last-in first-out: Unsubscribe ends the sink's
			// read loop before Close waits for it.
			defer kafkaSink.Close()
			defer sub.Unsubscribe()
		}

		kafkaSource = ingest.NewSource(cfg.KafkaBrokers, cfg.KafkaCommandsTopic, proc, log)
		go kafkaSource.Run(ctx)
		defer kafkaSource.Close()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: cfg.MetricsListenAddr, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("engine: metrics server exited", logging.Err(err))
		}
	}()

	log.Info("engine: ready", logging.String("metrics_addr", cfg.MetricsListenAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("engine: shutting down")
	cancel()
	_ = metricsSrv.Shutdown(context.Background())
}
