package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
// The CLI layer may override individual fields after Load.
type Config struct {
	DataDir      string
	StationsPath string
	HTTPAddr     string
	LogLevel     string
	LogFormat    string

	Workers         int
	DownloadTimeout time.Duration
	ArchiveURL      string
	StationListURL  string

	// Optional publishing of histogram flush records to Kafka.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	workers, err := parseWorkers()
	if err != nil {
		return nil, err
	}

	timeoutStr := envOrDefault("ARTAF_DOWNLOAD_TIMEOUT", "120s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil || timeout <= 0 {
		return nil, errors.New("invalid ARTAF_DOWNLOAD_TIMEOUT")
	}

	brokers := parseBrokers(os.Getenv("ARTAF_KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("ARTAF_KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DataDir:         envOrDefault("ARTAF_DATA_DIR", "data"),
		StationsPath:    envOrDefault("ARTAF_STATIONS", filepath.Join("config", "stations.csv")),
		HTTPAddr:        envOrDefault("ARTAF_HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("ARTAF_LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("ARTAF_LOG_FORMAT", "json"),
		Workers:         workers,
		DownloadTimeout: timeout,
		ArchiveURL:      envOrDefault("ARTAF_ARCHIVE_URL", "https://mesonet.agron.iastate.edu/cgi-bin/afos/retrieve.py"),
		StationListURL:  envOrDefault("ARTAF_STATION_LIST_URL", "https://mesonet.agron.iastate.edu/api/1/nws/taf_overview.json"),
		KafkaBrokers:    brokers,
		KafkaTopic:      envOrDefault("ARTAF_KAFKA_TOPIC", "taf-histograms"),
		KafkaEnabled:    kafkaEnabled,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("ARTAF_DATA_DIR is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("ARTAF_KAFKA_ENABLED is true but ARTAF_KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// StorePath is the location of the local TAF cache database.
func (c *Config) StorePath() string { return filepath.Join(c.DataDir, "tafs.db") }

// OutputDir is where histogram result archives are written.
func (c *Config) OutputDir() string { return filepath.Join(c.DataDir, "histograms") }

// LogDir is where per-run diagnostic CSVs (e.g. parse error logs) go.
func (c *Config) LogDir() string { return filepath.Join(c.DataDir, "logs") }

func parseWorkers() (int, error) {
	s := os.Getenv("ARTAF_WORKERS")
	if s == "" {
		return runtime.NumCPU(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid ARTAF_WORKERS %q", s)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
