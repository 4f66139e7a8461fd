package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/couchcryptid/surf-conditions-etl/internal/observability"
)

// CachedAggregator wraps an Aggregator with an in-memory LRU cache keyed by a
// fingerprint of the full request, profile included. Aggregation is a pure
// function of its inputs, so a hit is always the answer the engine would give.
type CachedAggregator struct {
	inner    Aggregator
	profiles ProfileResolver
	cache    *lruCache
	metrics  *observability.Metrics
}

// NewCachedAggregator creates a cache decorator around an aggregator.
func NewCachedAggregator(inner Aggregator, profiles ProfileResolver, maxEntries int, metrics *observability.Metrics) *CachedAggregator {
	return &CachedAggregator{
		inner:    inner,
		profiles: profiles,
		cache:    newLRUCache(maxEntries),
		metrics:  metrics,
	}
}

func (c *CachedAggregator) Aggregate(ctx context.Context, req domain.AggregateRequest) (domain.AggregatedConditions, error) {
	if req.Profile.SpotID == "" && req.SpotID != "" {
		req.Profile = c.profiles.Resolve(req.SpotID)
	}

	key, ok := fingerprint(req)
	if !ok {
		return c.inner.Aggregate(ctx, req)
	}
	if result, ok := c.cache.get(key); ok {
		c.metrics.AggregateCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.AggregateCache.WithLabelValues("miss").Inc()

	result, err := c.inner.Aggregate(ctx, req)
	if err != nil {
		// Errors are not cached so a bucket can recover once data arrives.
		return result, err
	}
	c.cache.put(key, result)
	return result, nil
}

// fingerprintObservation mirrors domain.Observation with stable JSON names.
type fingerprintObservation struct {
	SourceID      string        `json:"s"`
	Timestamp     time.Time     `json:"t"`
	Metric        domain.Metric `json:"m"`
	Value         domain.Range  `json:"v"`
	Unit          string        `json:"u"`
	Period        float64       `json:"p"`
	Direction     domain.Octant `json:"d"`
	Reliability   float64       `json:"r"`
	RefreshWindow time.Duration `json:"w"`
	SensorOffline bool          `json:"o"`
	Authoritative bool          `json:"a"`
}

// fingerprint hashes the request. Observations are sorted first because the
// engine does not depend on input order. The second result is false when the
// request cannot be encoded (non-finite values), which bypasses the cache.
func fingerprint(req domain.AggregateRequest) (string, bool) {
	obs := make([]fingerprintObservation, 0, len(req.Observations))
	for _, o := range req.Observations {
		obs = append(obs, fingerprintObservation{
			SourceID:      o.SourceID,
			Timestamp:     o.Timestamp.UTC(),
			Metric:        o.Metric,
			Value:         o.Value,
			Unit:          o.Unit,
			Period:        o.Period,
			Direction:     o.Direction,
			Reliability:   o.Reliability,
			RefreshWindow: o.RefreshWindow,
			SensorOffline: o.SensorOffline,
			Authoritative: o.Authoritative,
		})
		if o.SpotID != req.SpotID {
			// Let the engine reject it; never cache a mixed request.
			return "", false
		}
	}
	sort.Slice(obs, func(i, j int) bool {
		a, b := obs[i], obs[j]
		if a.Metric != b.Metric {
			return a.Metric < b.Metric
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Direction < b.Direction
	})

	h := sha256.New()
	enc := json.NewEncoder(h)
	payload := struct {
		SpotID       string                     `json:"spot"`
		Bucket       time.Time                  `json:"bucket"`
		AsOf         time.Time                  `json:"as_of"`
		Profile      domain.SpotProfile         `json:"profile"`
		Exposure     map[string]domain.Exposure `json:"exposure"`
		Observations []fingerprintObservation   `json:"obs"`
	}{
		SpotID:       req.SpotID,
		Bucket:       req.Bucket.UTC(),
		AsOf:         req.AsOf.UTC(),
		Profile:      req.Profile,
		Exposure:     req.Profile.ExposureMap(),
		Observations: obs,
	}
	if err := enc.Encode(payload); err != nil {
		return "", false
	}
	return hex.EncodeToString(h.Sum(nil)), true
}

// lruCache is a simple thread-safe LRU cache for aggregation results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.AggregatedConditions
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.AggregatedConditions, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.AggregatedConditions{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.AggregatedConditions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
