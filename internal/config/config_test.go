package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker = "localhost:9092"
	testToken     = "AAPK-test-token"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "geocode-jobs", cfg.KafkaSourceTopic)
	assert.Equal(t, "geocode-results", cfg.KafkaSinkTopic)
	assert.Equal(t, "arcgeocode", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Empty(t, cfg.ArcGISURL)
	assert.Empty(t, cfg.ArcGISToken)
	assert.Equal(t, 30*time.Second, cfg.ArcGISTimeout)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 1000, cfg.CacheSize)
	assert.Equal(t, 8, cfg.ReverseConcurrency)
	assert.Empty(t, cfg.FieldMapFile)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("ARCGIS_GEOCODE_URL", "https://geocode.example.com/arcgis/rest/services/Locator/GeocodeServer")
	t.Setenv("ARCGIS_TOKEN", testToken)
	t.Setenv("ARCGIS_TIMEOUT", "10s")
	t.Setenv("ARCGIS_CACHE_ENABLED", "false")
	t.Setenv("ARCGIS_CACHE_SIZE", "500")
	t.Setenv("REVERSE_CONCURRENCY", "16")
	t.Setenv("FIELD_MAP_FILE", "/etc/arcgeocode/fields.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "https://geocode.example.com/arcgis/rest/services/Locator/GeocodeServer", cfg.ArcGISURL)
	assert.Equal(t, testToken, cfg.ArcGISToken)
	assert.Equal(t, 10*time.Second, cfg.ArcGISTimeout)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 500, cfg.CacheSize)
	assert.Equal(t, 16, cfg.ReverseConcurrency)
	assert.Equal(t, "/etc/arcgeocode/fields.yaml", cfg.FieldMapFile)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"ARCGIS_TIMEOUT", "bad"},
		{"ARCGIS_TIMEOUT", "-5s"},
		{"ARCGIS_CACHE_SIZE", "0"},
		{"ARCGIS_CACHE_SIZE", "lots"},
		{"ARCGIS_CACHE_ENABLED", "sometimes"},
		{"REVERSE_CONCURRENCY", "0"},
		{"REVERSE_CONCURRENCY", "65"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_ConcurrencyUpperBound(t *testing.T) {
	t.Setenv("REVERSE_CONCURRENCY", "64")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.ReverseConcurrency)
}
