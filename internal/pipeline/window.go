package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
)

// BucketSize is the width of an aggregation time bucket.
const BucketSize = time.Hour

// BucketKey identifies one (spot, hour) aggregation.
type BucketKey struct {
	SpotID string
	Bucket time.Time
}

// BucketFor returns the bucket an observation falls in.
func BucketFor(o domain.Observation) BucketKey {
	return BucketKey{SpotID: o.SpotID, Bucket: o.Timestamp.UTC().Truncate(BucketSize)}
}

// End is the first instant after the bucket. Reports are judged stale
// relative to it, so an early report the bucket has outgrown is dropped.
func (k BucketKey) End() time.Time { return k.Bucket.Add(BucketSize) }

// reportKey deduplicates reports within a bucket. Swell is keyed by direction
// as well because one source can report several swell trains.
type reportKey struct {
	source    string
	metric    domain.Metric
	direction domain.Octant
}

// Window holds the latest report per (source, metric) for each open bucket.
// Buckets older than the retention are evicted and late reports for them are
// refused, so the window is bounded by retention times the number of spots.
type Window struct {
	retention time.Duration

	mu      sync.Mutex
	buckets map[BucketKey]map[reportKey]domain.Observation
}

// NewWindow creates a window that keeps buckets for the given retention.
func NewWindow(retention time.Duration) *Window {
	return &Window{
		retention: retention,
		buckets:   make(map[BucketKey]map[reportKey]domain.Observation),
	}
}

// Add records the observation and returns the bucket it landed in. The second
// result is false when the bucket is already past retention at now.
func (w *Window) Add(o domain.Observation, now time.Time) (BucketKey, bool) {
	key := BucketFor(o)
	if w.expired(key, now) {
		return key, false
	}

	rk := reportKey{source: o.SourceID, metric: o.Metric}
	if o.Metric == domain.MetricSwell {
		rk.direction = o.Direction
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	reports, ok := w.buckets[key]
	if !ok {
		reports = make(map[reportKey]domain.Observation)
		w.buckets[key] = reports
	}
	if prev, ok := reports[rk]; ok && prev.Timestamp.After(o.Timestamp) {
		return key, true
	}
	reports[rk] = o
	return key, true
}

// Observations returns the reports held for key in a stable order.
func (w *Window) Observations(key BucketKey) []domain.Observation {
	w.mu.Lock()
	reports := w.buckets[key]
	out := make([]domain.Observation, 0, len(reports))
	for _, o := range reports {
		out = append(out, o)
	}
	w.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Metric != b.Metric {
			return a.Metric < b.Metric
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.Direction < b.Direction
	})
	return out
}

// Evict drops buckets past retention and returns how many were removed.
func (w *Window) Evict(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for key := range w.buckets {
		if w.expired(key, now) {
			delete(w.buckets, key)
			n++
		}
	}
	return n
}

// Len returns the number of open buckets.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buckets)
}

func (w *Window) expired(key BucketKey, now time.Time) bool {
	return now.Sub(key.Bucket.Add(BucketSize)) > w.retention
}

// sortKeys orders bucket keys by spot then time.
func sortKeys(keys []BucketKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SpotID != keys[j].SpotID {
			return keys[i].SpotID < keys[j].SpotID
		}
		return keys[i].Bucket.Before(keys[j].Bucket)
	})
}
