package config

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, filepath.Join("config", "stations.csv"), cfg.StationsPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, 120*time.Second, cfg.DownloadTimeout)
	assert.Contains(t, cfg.ArchiveURL, "mesonet.agron.iastate.edu")
	assert.Contains(t, cfg.StationListURL, "taf_overview.json")
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "taf-histograms", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("ARTAF_DATA_DIR", "/var/lib/artaf")
	t.Setenv("ARTAF_STATIONS", "/etc/artaf/stations.csv")
	t.Setenv("ARTAF_HTTP_ADDR", ":9090")
	t.Setenv("ARTAF_LOG_LEVEL", "debug")
	t.Setenv("ARTAF_LOG_FORMAT", "text")
	t.Setenv("ARTAF_WORKERS", "4")
	t.Setenv("ARTAF_DOWNLOAD_TIMEOUT", "30s")
	t.Setenv("ARTAF_KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("ARTAF_KAFKA_TOPIC", "custom-topic")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/artaf", cfg.DataDir)
	assert.Equal(t, "/etc/artaf/stations.csv", cfg.StationsPath)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.DownloadTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaToggle(t *testing.T) {
	t.Run("brokers alone enable publishing", func(t *testing.T) {
		t.Setenv("ARTAF_KAFKA_BROKERS", "broker1:9092")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.KafkaEnabled)
	})
	t.Run("explicit disable wins", func(t *testing.T) {
		t.Setenv("ARTAF_KAFKA_BROKERS", "broker1:9092")
		t.Setenv("ARTAF_KAFKA_ENABLED", "false")
		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.KafkaEnabled)
	})
	t.Run("enabled without brokers is an error", func(t *testing.T) {
		t.Setenv("ARTAF_KAFKA_ENABLED", "true")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ARTAF_KAFKA_BROKERS")
	})
}

func TestLoad_InvalidWorkers(t *testing.T) {
	t.Setenv("ARTAF_WORKERS", "zero")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARTAF_WORKERS")

	t.Setenv("ARTAF_WORKERS", "0")
	_, err = Load()
	require.Error(t, err)
}

func TestLoad_InvalidDownloadTimeout(t *testing.T) {
	t.Setenv("ARTAF_DOWNLOAD_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARTAF_DOWNLOAD_TIMEOUT")
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "base"}

	assert.Equal(t, filepath.Join("base", "tafs.db"), cfg.StorePath())
	assert.Equal(t, filepath.Join("base", "histograms"), cfg.OutputDir())
	assert.Equal(t, filepath.Join("base", "logs"), cfg.LogDir())
}
