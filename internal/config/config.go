package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	defaultCacheSize   = 1000
	maxConcurrency     = 64
	defaultConcurrency = 8
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// ArcGIS geocoding configuration. An empty ArcGISURL selects the
	// World Geocoding Service.
	ArcGISURL          string
	ArcGISToken        string
	ArcGISTimeout      time.Duration
	CacheEnabled       bool
	CacheSize          int
	ReverseConcurrency int

	// FieldMapFile is an optional YAML file mapping host columns to
	// address fields. See LoadFieldMap.
	FieldMapFile string
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

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("ARCGIS_TIMEOUT", "30s"))
	if err != nil || timeout <= 0 {
		return nil, errors.New("invalid ARCGIS_TIMEOUT")
	}

	cacheSize, err := parsePositiveInt("ARCGIS_CACHE_SIZE", defaultCacheSize)
	if err != nil {
		return nil, err
	}

	concurrency, err := parsePositiveInt("REVERSE_CONCURRENCY", defaultConcurrency)
	if err != nil {
		return nil, err
	}
	if concurrency > maxConcurrency {
		return nil, fmt.Errorf("REVERSE_CONCURRENCY must be at most %d", maxConcurrency)
	}

	cacheEnabled := true
	if v := os.Getenv("ARCGIS_CACHE_ENABLED"); v != "" {
		cacheEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ARCGIS_CACHE_ENABLED %q", v)
		}
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "geocode-jobs"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "geocode-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "arcgeocode"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		ArcGISURL:          os.Getenv("ARCGIS_GEOCODE_URL"),
		ArcGISToken:        os.Getenv("ARCGIS_TOKEN"),
		ArcGISTimeout:      timeout,
		CacheEnabled:       cacheEnabled,
		CacheSize:          cacheSize,
		ReverseConcurrency: concurrency,
		FieldMapFile:       os.Getenv("FIELD_MAP_FILE"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, s)
	}
	return n, nil
}
