package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
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

	// SpotProfilesPath points at a YAML spot catalogue. Empty uses the
	// embedded Lake Superior catalogue.
	SpotProfilesPath string

	// ObservationRetention is how long an hourly bucket stays open for late
	// reports before it is evicted from the window.
	ObservationRetention time.Duration
	AggregateCacheSize   int

	// Circuit breaker around the sink writer.
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	Engine domain.EngineConfig
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

	retention, err := parseDuration("OBSERVATION_RETENTION", "6h")
	if err != nil {
		return nil, err
	}

	breakerTimeout, err := parseDuration("KAFKA_BREAKER_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("AGGREGATE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	breakerFailures, err := parsePositiveInt("KAFKA_BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return nil, err
	}

	engine, err := loadEngine()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "surf-observations"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "surf-conditions"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "surf-conditions-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		SpotProfilesPath:     sharedcfg.EnvOrDefault("SPOT_PROFILES_PATH", ""),
		ObservationRetention: retention,
		AggregateCacheSize:   cacheSize,

		BreakerMaxFailures: uint32(breakerFailures), //nolint:gosec // bounded by parsePositiveInt
		BreakerOpenTimeout: breakerTimeout,

		Engine: engine,
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
	if cfg.KafkaSourceTopic == cfg.KafkaSinkTopic {
		return nil, errors.New("KAFKA_SINK_TOPIC must differ from KAFKA_SOURCE_TOPIC")
	}

	return cfg, nil
}

// loadEngine reads the blending and likelihood tolerances.
func loadEngine() (domain.EngineConfig, error) {
	engine := domain.DefaultEngineConfig()

	fields := []struct {
		env    string
		dst    *float64
		max    float64
		strict bool // must be > 0
	}{
		{"WAVE_CONFLICT_SPREAD_FT", &engine.Blend.WaveConflictSpread, 0, true},
		{"WIND_CONFLICT_SPREAD_MPH", &engine.Blend.WindConflictSpread, 0, true},
		{"WATER_CONFLICT_SPREAD_F", &engine.Blend.WaterConflictSpread, 0, true},
		{"CONFLICT_CONFIDENCE_CEILING", &engine.Blend.ConflictCeiling, 1, false},
		{"LOW_CONFIDENCE_THRESHOLD", &engine.LowConfidenceThreshold, 1, false},
	}
	for _, f := range fields {
		s := sharedcfg.EnvOrDefault(f.env, "")
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 || (f.strict && v == 0) || (f.max > 0 && v > f.max) {
			return domain.EngineConfig{}, fmt.Errorf("invalid %s %q", f.env, s)
		}
		*f.dst = v
	}
	return engine, nil
}

func parseDuration(env, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(env, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", env, s)
	}
	return d, nil
}

func parsePositiveInt(env string, def int) (int, error) {
	s := sharedcfg.EnvOrDefault(env, strconv.Itoa(def))
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 1_000_000 {
		return 0, fmt.Errorf("invalid %s %q", env, s)
	}
	return n, nil
}
