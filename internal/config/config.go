package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"clobcore/internal/logging"
	"clobcore/internal/walcore"
)

// Config collects every setting cmd/engine needs to start. Kafka fields
// are optional: a deployment driving the engine purely over direct RPC
// leaves KafkaBrokers empty and neither the KafkaSink nor the ingest
// Source is constructed.
type Config struct {
	WALPath                  string
	FsyncMode                walcore.FsyncMode
	SnapshotStorePath        string
	SnapshotIntervalCommands int
	MetricsListenAddr        string
	LogLevel                 logging.Level

	KafkaBrokers       []string
	KafkaEventsTopic   string
	KafkaCommandsTopic string

	ProcessorInboxSize  int
	BroadcastBufferSize int
}

// Load reads every CLOBCORE_* environment variable, filling in a default
// for anything unset, the same way wal/config.go's New fills in a
// default for every zero field of its Config.
func Load() (Config, error) {
	cfg := Config{
		WALPath:                  envOr("CLOBCORE_WAL_PATH", "./data/wal.log"),
		SnapshotStorePath:        envOr("CLOBCORE_SNAPSHOT_STORE_PATH", "./data/snapshots"),
		SnapshotIntervalCommands: 1000,
		MetricsListenAddr:        envOr("CLOBCORE_METRICS_LISTEN_ADDR", ":9090"),
		LogLevel:                 logging.Level(envOr("CLOBCORE_LOG_LEVEL", "info")),
		KafkaEventsTopic:         envOr("CLOBCORE_KAFKA_EVENTS_TOPIC", "clobcore.events"),
		KafkaCommandsTopic:       envOr("CLOBCORE_KAFKA_COMMANDS_TOPIC", "clobcore.commands"),
		ProcessorInboxSize:       1024,
		BroadcastBufferSize:      256,
	}

	if v := os.Getenv("CLOBCORE_SNAPSHOT_INTERVAL_COMMANDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: CLOBCORE_SNAPSHOT_INTERVAL_COMMANDS: %w", err)
		}
		cfg.SnapshotIntervalCommands = n
	}
	if v := os.Getenv("CLOBCORE_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLOBCORE_PROCESSOR_INBOX_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: CLOBCORE_PROCESSOR_INBOX_SIZE: %w", err)
		}
		cfg.ProcessorInboxSize = n
	}
	if v := os.Getenv("CLOBCORE_BROADCAST_BUFFER_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: CLOBCORE_BROADCAST_BUFFER_SIZE: %w", err)
		}
		cfg.BroadcastBufferSize = n
	}

	fsyncMode, err := parseFsyncMode(envOr("CLOBCORE_FSYNC_MODE", "always"))
	if err != nil {
		return Config{}, err
	}
	cfg.FsyncMode = fsyncMode

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseFsyncMode(v string) (walcore.FsyncMode, error) {
	switch strings.ToLower(v) {
	case "always":
		return walcore.FsyncAlways, nil
	case "never":
		return walcore.FsyncNever, nil
	default:
		return 0, fmt.Errorf("config: CLOBCORE_FSYNC_MODE must be %q or %q, got %q", "always", "never", v)
	}
}

func (c Config) validate() error {
	if c.WALPath == "" {
		return fmt.Errorf("config: WAL path must not be empty")
	}
	switch c.LogLevel {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}
	if c.SnapshotIntervalCommands < 0 {
		return fmt.Errorf("config: snapshot interval must not be negative")
	}
	if c.ProcessorInboxSize <= 0 {
		return fmt.Errorf("config: processor inbox size must be positive")
	}
	if c.BroadcastBufferSize <= 0 {
		return fmt.Errorf("config: broadcast buffer size must be positive")
	}
	switch c.FsyncMode {
	case walcore.FsyncAlways, walcore.FsyncNever:
	default:
		return fmt.Errorf("config: invalid fsync mode %v", c.FsyncMode)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
