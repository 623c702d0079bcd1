package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogOutput       string
	LogFile         string
	ShutdownTimeout time.Duration

	// Input dataset and analysis parameters file.
	DataDir        string
	AnalysisConfig string
	Workers        int

	// Result sinks. An empty path disables the sink.
	SQLitePath    string
	SnapshotPath  string
	ServeAfterRun bool

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaWaveTopic string
	BatchSize      int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	workers, err := parseWorkers()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		LogOutput:       sharedcfg.EnvOrDefault("LOG_OUTPUT", "stdout"),
		LogFile:         os.Getenv("LOG_FILE"),
		ShutdownTimeout: shutdownTimeout,

		DataDir:        sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		AnalysisConfig: os.Getenv("ANALYSIS_CONFIG"),
		Workers:        workers,

		SQLitePath:    os.Getenv("SQLITE_PATH"),
		SnapshotPath:  os.Getenv("SNAPSHOT_PATH"),
		ServeAfterRun: os.Getenv("SERVE_AFTER_RUN") == "true",

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaWaveTopic: sharedcfg.EnvOrDefault("KAFKA_WAVE_TOPIC", "flood-waves"),
		BatchSize:      batchSize,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	switch cfg.LogOutput {
	case "stdout", "stderr":
	case "file":
		if cfg.LogFile == "" {
			return nil, errors.New("LOG_OUTPUT is file but LOG_FILE is not set")
		}
	default:
		return nil, fmt.Errorf("invalid LOG_OUTPUT %q", cfg.LogOutput)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaWaveTopic == "" {
			return nil, errors.New("KAFKA_WAVE_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseWorkers() (int, error) {
	s := os.Getenv("WORKERS")
	if s == "" {
		return runtime.NumCPU(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid WORKERS %q: must be a positive integer", s)
	}
	return n, nil
}
