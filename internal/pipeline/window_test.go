package pipeline

import (
	"testing"
	"time"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var windowBucket = time.Date(2025, time.October, 15, 15, 0, 0, 0, time.UTC)

func report(source string, metric domain.Metric, at time.Time, v float64) domain.Observation {
	return domain.Observation{
		SpotID:      "stoney-point",
		SourceID:    source,
		Timestamp:   at,
		Metric:      metric,
		Value:       domain.Point(v),
		Reliability: 0.8,
	}
}

func TestWindow_KeepsLatestPerSourceAndMetric(t *testing.T) {
	clk := clockwork.NewFakeClockAt(windowBucket.Add(time.Hour))
	w := NewWindow(6 * time.Hour)

	key, ok := w.Add(report("ndbc-45027", domain.MetricWaveHeight, windowBucket.Add(10*time.Minute), 2), clk.Now())
	require.True(t, ok)
	assert.Equal(t, BucketKey{SpotID: "stoney-point", Bucket: windowBucket}, key)

	w.Add(report("ndbc-45027", domain.MetricWaveHeight, windowBucket.Add(40*time.Minute), 3), clk.Now())
	w.Add(report("ndbc-45027", domain.MetricWaveHeight, windowBucket.Add(20*time.Minute), 9), clk.Now()) // out of order
	w.Add(report("ndbc-45027", domain.MetricWaterTemp, windowBucket.Add(10*time.Minute), 48), clk.Now())
	w.Add(report("glos-model", domain.MetricWaveHeight, windowBucket.Add(5*time.Minute), 2.5), clk.Now())

	obs := w.Observations(key)
	require.Len(t, obs, 3)
	assert.Equal(t, domain.MetricWaterTemp, obs[0].Metric)
	assert.Equal(t, "glos-model", obs[1].SourceID)
	assert.Equal(t, domain.Point(3), obs[2].Value, "newest buoy report wins")
}

func TestWindow_SwellKeyedByDirection(t *testing.T) {
	w := NewWindow(6 * time.Hour)
	now := windowBucket.Add(time.Hour)

	ne := report("glos-model", domain.MetricSwell, windowBucket, 2)
	ne.Direction = domain.NE
	e := report("glos-model", domain.MetricSwell, windowBucket, 1)
	e.Direction = domain.E

	key, _ := w.Add(ne, now)
	w.Add(e, now)
	assert.Len(t, w.Observations(key), 2)
}

func TestWindow_SeparateBuckets(t *testing.T) {
	w := NewWindow(6 * time.Hour)
	now := windowBucket.Add(2 * time.Hour)

	a, _ := w.Add(report("ndbc-45027", domain.MetricWaveHeight, windowBucket.Add(59*time.Minute), 2), now)
	b, _ := w.Add(report("ndbc-45027", domain.MetricWaveHeight, windowBucket.Add(61*time.Minute), 3), now)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, w.Len())
}

func TestWindow_Eviction(t *testing.T) {
	clk := clockwork.NewFakeClockAt(windowBucket.Add(time.Hour))
	w := NewWindow(2 * time.Hour)

	_, ok := w.Add(report("ndbc-45027", domain.MetricWaveHeight, windowBucket.Add(10*time.Minute), 2), clk.Now())
	require.True(t, ok)

	clk.Advance(2 * time.Hour)
	assert.Zero(t, w.Evict(clk.Now()), "exactly at retention is kept")

	clk.Advance(time.Minute)
	assert.Equal(t, 1, w.Evict(clk.Now()))
	assert.Zero(t, w.Len())

	_, ok = w.Add(report("ndbc-45027", domain.MetricWaveHeight, windowBucket.Add(20*time.Minute), 2), clk.Now())
	assert.False(t, ok, "late report for an evicted bucket is refused")
	assert.Zero(t, w.Len())
}

func TestSortKeys(t *testing.T) {
	keys := []BucketKey{
		{SpotID: "stoney-point", Bucket: windowBucket},
		{SpotID: "park-point", Bucket: windowBucket.Add(time.Hour)},
		{SpotID: "park-point", Bucket: windowBucket},
	}
	sortKeys(keys)
	assert.Equal(t, []BucketKey{
		{SpotID: "park-point", Bucket: windowBucket},
		{SpotID: "park-point", Bucket: windowBucket.Add(time.Hour)},
		{SpotID: "stoney-point", Bucket: windowBucket},
	}, keys)
}
