package pipeline

import (
	"testing"
	"time"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeObservation(t *testing.T) {
	raw := domain.RawEvent{Value: []byte(`{
		"spot_id": "stoney-point",
		"source_id": "ndbc-45027",
		"observed_at": "2025-10-15T10:20:00-05:00",
		"metric": "wave_height",
		"min": 1.0,
		"max": 1.2,
		"unit": "m",
		"period_s": 7,
		"direction": "ENE",
		"reliability": 0.9,
		"refresh_window": "1h",
		"authoritative": true
	}`)}

	obs, err := DecodeObservation(raw)
	require.NoError(t, err)

	assert.Equal(t, domain.Observation{
		SpotID:        "stoney-point",
		SourceID:      "ndbc-45027",
		Timestamp:     time.Date(2025, time.October, 15, 15, 20, 0, 0, time.UTC),
		Metric:        domain.MetricWaveHeight,
		Value:         domain.Range{Min: 1.0, Max: 1.2},
		Unit:          "m",
		Period:        7,
		Direction:     domain.E,
		Reliability:   0.9,
		RefreshWindow: time.Hour,
		Authoritative: true,
	}, obs)
}

func TestDecodeObservation_DirectionDegrees(t *testing.T) {
	raw := domain.RawEvent{Value: []byte(`{"spot_id":"a","source_id":"b","observed_at":"2025-10-15T15:00:00Z",
		"metric":"wind","value":12,"unit":"kt","direction_deg":312,"reliability":0.7}`)}

	obs, err := DecodeObservation(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.NW, obs.Direction)
	assert.Equal(t, domain.Point(12), obs.Value)
}

func TestDecodeObservation_Errors(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		errMsg string
	}{
		{"not json", `nope`, "malformed observation"},
		{"missing spot", `{"source_id":"b","observed_at":"2025-10-15T15:00:00Z","metric":"wind","value":1}`, "spot_id is required"},
		{"missing source", `{"spot_id":"a","observed_at":"2025-10-15T15:00:00Z","metric":"wind","value":1}`, "source_id is required"},
		{"missing time", `{"spot_id":"a","source_id":"b","metric":"wind","value":1}`, "observed_at is required"},
		{"unknown metric", `{"spot_id":"a","source_id":"b","observed_at":"2025-10-15T15:00:00Z","metric":"tide","value":1}`, `unknown metric "tide"`},
		{"no value", `{"spot_id":"a","source_id":"b","observed_at":"2025-10-15T15:00:00Z","metric":"wind"}`, "value or min/max is required"},
		{"only min", `{"spot_id":"a","source_id":"b","observed_at":"2025-10-15T15:00:00Z","metric":"wind","min":1}`, "value or min/max is required"},
		{"inverted range", `{"spot_id":"a","source_id":"b","observed_at":"2025-10-15T15:00:00Z","metric":"wind","min":3,"max":1}`, "min 3 exceeds max 1"},
		{"bad direction", `{"spot_id":"a","source_id":"b","observed_at":"2025-10-15T15:00:00Z","metric":"wind","value":1,"direction":"UP"}`, "unknown compass direction"},
		{"bad refresh", `{"spot_id":"a","source_id":"b","observed_at":"2025-10-15T15:00:00Z","metric":"wind","value":1,"refresh_window":"soon"}`, "invalid refresh_window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeObservation(domain.RawEvent{Value: []byte(tt.json)})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewObservationMessage_RoundTrip(t *testing.T) {
	in := domain.Observation{
		SpotID:        "park-point",
		SourceID:      "glos-model",
		Timestamp:     time.Date(2025, time.October, 15, 15, 20, 0, 0, time.UTC),
		Metric:        domain.MetricSwell,
		Value:         domain.Range{Min: 2, Max: 3},
		Unit:          "ft",
		Period:        6,
		Direction:     domain.NE,
		Reliability:   0.6,
		RefreshWindow: 3 * time.Hour,
	}

	out, err := NewObservationMessage(in).Observation()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
