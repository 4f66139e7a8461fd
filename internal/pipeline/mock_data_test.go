package pipeline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/couchcryptid/surf-conditions-etl/internal/pipeline"
	"github.com/couchcryptid/surf-conditions-etl/internal/spots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfAggregator_WithMockJSONData(t *testing.T) {
	registry, err := spots.NewRegistry("", slog.Default())
	require.NoError(t, err)

	agg := pipeline.NewAggregator(registry, domain.DefaultEngineConfig(), slog.Default(), newTestMetrics())
	window := pipeline.NewWindow(6 * time.Hour)

	messages := readMockObservations(t)
	require.Len(t, messages, 15)

	for _, msg := range messages {
		obs, err := msg.Observation()
		require.NoError(t, err, "%s/%s/%s", msg.SpotID, msg.SourceID, msg.Metric)
		_, ok := window.Add(obs, testNow)
		require.True(t, ok)
	}
	require.Equal(t, 5, window.Len())

	results := make(map[string]domain.AggregatedConditions)
	for _, spotID := range []string{"black-rocks", "lester-river", "park-point", "picnic-rocks", "stoney-point"} {
		key := pipeline.BucketKey{SpotID: spotID, Bucket: testBucket}
		out, err := agg.Aggregate(context.Background(), domain.AggregateRequest{
			SpotID:       spotID,
			Bucket:       testBucket,
			AsOf:         key.End(),
			Observations: window.Observations(key),
		})
		require.NoError(t, err, spotID)
		results[spotID] = out
	}

	t.Run("stoney point firing", func(t *testing.T) {
		out := results["stoney-point"]
		assert.Equal(t, domain.Firing, out.SurfLikelihood)
		assert.Equal(t, "Stoney Point", out.SpotName)
		assert.InDelta(t, 3.76, out.WaveHeight.Value.Min, 1e-9)
		assert.InDelta(t, 4.24, out.WaveHeight.Value.Max, 1e-9)
		assert.InDelta(t, 0.7, out.Confidence, 1e-9)
		assert.Equal(t, domain.ProvenanceObserved, out.WaveHeight.Provenance)
		assert.Equal(t, []domain.DroppedSource{{SourceID: "nws-dlh", Reason: domain.DropOffline}}, out.WaveHeight.DroppedSources)
		assert.Equal(t, domain.WindClean, out.WindQuality.Quality)
		require.NotNil(t, out.WaterTemp)
		assert.InDelta(t, 48.0, out.WaterTemp.Value.Max, 1e-9)
		assert.False(t, out.Conflict)
	})

	t.Run("lester river onshore", func(t *testing.T) {
		out := results["lester-river"]
		assert.Equal(t, domain.MaybeSurf, out.SurfLikelihood)
		assert.Equal(t, domain.WindOnshore, out.WindQuality.Quality)
	})

	t.Run("park point conflict with low confidence", func(t *testing.T) {
		out := results["park-point"]
		assert.Equal(t, domain.Good, out.SurfLikelihood, "low confidence caps firing at good")
		assert.True(t, out.Conflict)
		assert.True(t, out.LowConfidence)
		assert.InDelta(t, 0.35, out.Confidence, 1e-9)
		assert.InDelta(t, 4.2, out.WaveHeight.Value.Max, 1e-9)
		assert.InDelta(t, 3.0, out.WaveHeight.Spread, 1e-9)
	})

	t.Run("picnic rocks flat", func(t *testing.T) {
		out := results["picnic-rocks"]
		assert.Equal(t, domain.Flat, out.SurfLikelihood)
		assert.Equal(t, domain.SouthShore, out.Shore)
	})

	t.Run("black rocks derived from swell", func(t *testing.T) {
		out := results["black-rocks"]
		assert.Equal(t, domain.Good, out.SurfLikelihood)
		assert.Equal(t, domain.ProvenanceDerived, out.WaveHeight.Provenance)
		assert.InDelta(t, 2.5, out.WaveHeight.Value.Max, 1e-9)
		assert.InDelta(t, 7.0, out.Period, 1e-9)
		require.Len(t, out.Swell, 2)
		assert.Equal(t, domain.NW, out.Swell[0].Direction)
		assert.Equal(t, domain.N, out.Swell[1].Direction)
	})

	t.Run("every result has insight text", func(t *testing.T) {
		for spotID, out := range results {
			assert.NotEmpty(t, out.SurfReport, spotID)
			assert.NotEmpty(t, out.Recommendations, spotID)
			assert.GreaterOrEqual(t, out.Rating, 1, spotID)
			assert.LessOrEqual(t, out.Rating, 10, spotID)
		}
	})
}

func readMockObservations(t *testing.T) []pipeline.ObservationMessage {
	t.Helper()

	path := filepath.Join("..", "..", "data", "mock", "observations_251015.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var messages []pipeline.ObservationMessage
	require.NoError(t, json.Unmarshal(data, &messages))
	return messages
}
