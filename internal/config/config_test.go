package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "surf-observations", cfg.KafkaSourceTopic)
	assert.Equal(t, "surf-conditions", cfg.KafkaSinkTopic)
	assert.Equal(t, "surf-conditions-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Empty(t, cfg.SpotProfilesPath)
	assert.Equal(t, 6*time.Hour, cfg.ObservationRetention)
	assert.Equal(t, 1000, cfg.AggregateCacheSize)
	assert.Equal(t, uint32(5), cfg.BreakerMaxFailures)
	assert.Equal(t, 30*time.Second, cfg.BreakerOpenTimeout)
	assert.Equal(t, domain.DefaultEngineConfig(), cfg.Engine)
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
	t.Setenv("SPOT_PROFILES_PATH", "/etc/surf/spots.yaml")
	t.Setenv("OBSERVATION_RETENTION", "12h")
	t.Setenv("AGGREGATE_CACHE_SIZE", "250")
	t.Setenv("KAFKA_BREAKER_MAX_FAILURES", "3")
	t.Setenv("KAFKA_BREAKER_TIMEOUT", "1m")
	t.Setenv("WAVE_CONFLICT_SPREAD_FT", "1.5")
	t.Setenv("WIND_CONFLICT_SPREAD_MPH", "10")
	t.Setenv("CONFLICT_CONFIDENCE_CEILING", "0.4")
	t.Setenv("LOW_CONFIDENCE_THRESHOLD", "0.35")

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
	assert.Equal(t, "/etc/surf/spots.yaml", cfg.SpotProfilesPath)
	assert.Equal(t, 12*time.Hour, cfg.ObservationRetention)
	assert.Equal(t, 250, cfg.AggregateCacheSize)
	assert.Equal(t, uint32(3), cfg.BreakerMaxFailures)
	assert.Equal(t, time.Minute, cfg.BreakerOpenTimeout)
	assert.InDelta(t, 1.5, cfg.Engine.Blend.WaveConflictSpread, 1e-9)
	assert.InDelta(t, 10.0, cfg.Engine.Blend.WindConflictSpread, 1e-9)
	assert.InDelta(t, 0.4, cfg.Engine.Blend.ConflictCeiling, 1e-9)
	assert.InDelta(t, 0.35, cfg.Engine.LowConfidenceThreshold, 1e-9)
	assert.Equal(t, domain.DefaultBlendConfig().WaterConflictSpread, cfg.Engine.Blend.WaterConflictSpread)
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

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"OBSERVATION_RETENTION", "forever"},
		{"OBSERVATION_RETENTION", "-1h"},
		{"AGGREGATE_CACHE_SIZE", "0"},
		{"AGGREGATE_CACHE_SIZE", "lots"},
		{"KAFKA_BREAKER_MAX_FAILURES", "-2"},
		{"KAFKA_BREAKER_TIMEOUT", "0s"},
		{"WAVE_CONFLICT_SPREAD_FT", "0"},
		{"WIND_CONFLICT_SPREAD_MPH", "fast"},
		{"CONFLICT_CONFIDENCE_CEILING", "1.5"},
		{"LOW_CONFIDENCE_THRESHOLD", "-0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestLoad_SameSourceAndSinkTopic(t *testing.T) {
	t.Setenv("KAFKA_SOURCE_TOPIC", "surf")
	t.Setenv("KAFKA_SINK_TOPIC", "surf")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_SINK_TOPIC")
}
