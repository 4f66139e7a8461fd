// Command genmock generates deterministic observation fixtures for the
// embedded spot catalogue. It runs the fixtures through the real aggregation
// engine so the printed likelihoods can be pasted into test assertions.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/observations_251015.json \
//	  -conditions-out data/mock/conditions_251015.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/couchcryptid/surf-conditions-etl/internal/observability"
	"github.com/couchcryptid/surf-conditions-etl/internal/pipeline"
	"github.com/couchcryptid/surf-conditions-etl/internal/spots"
	"github.com/jonboulle/clockwork"
)

// observedAt is when every generated report was taken; the fixture bucket is
// the hour it falls in.
var observedAt = time.Date(2025, time.October, 15, 15, 20, 0, 0, time.UTC)

// scenario is one spot's reports plus the likelihood they should produce.
type scenario struct {
	spotID string
	want   domain.SurfLikelihood
	obs    []domain.Observation
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock/observations_251015.json", "output path for the observation fixture")
	conditionsOut := flag.String("conditions-out", "", "optional output path for the aggregated conditions fixture")
	flag.Parse()

	// Fixed clock for reproducible report and processed_at timestamps.
	clock := clockwork.NewFakeClockAt(observedAt)

	scenarios := buildScenarios(clock.Now())

	var messages []pipeline.ObservationMessage //nolint:prealloc // size depends on scenarios
	for _, s := range scenarios {
		for _, o := range s.obs {
			messages = append(messages, pipeline.NewObservationMessage(o))
		}
	}
	if err := writeJSON(*out, messages); err != nil {
		return fmt.Errorf("writing observation fixture: %w", err)
	}
	log.Printf("wrote observation fixture: %s (%d messages)", *out, len(messages))

	events, err := aggregate(scenarios, clock)
	if err != nil {
		return err
	}
	if *conditionsOut != "" {
		if err := writeJSON(*conditionsOut, events); err != nil {
			return fmt.Errorf("writing conditions fixture: %w", err)
		}
		log.Printf("wrote conditions fixture: %s", *conditionsOut)
	}

	printStats(events)
	return nil
}

func buildScenarios(at time.Time) []scenario {
	return []scenario{
		{
			spotID: "black-rocks",
			want:   domain.Good,
			obs: []domain.Observation{
				swell("black-rocks", "glos-model", at, 2.5, 7, domain.NW),
				swell("black-rocks", "glos-model", at, 1.0, 5, domain.N),
				wind("black-rocks", "nws-mqt", at, 8, domain.S, 0.7, time.Hour),
			},
		},
		{
			spotID: "lester-river",
			want:   domain.MaybeSurf,
			obs: []domain.Observation{
				buoy("lester-river", "ndbc-45027", at, domain.Range{Min: 2, Max: 2.5}, 6),
				wind("lester-river", "nws-dlh", at, 12, domain.NE, 0.7, time.Hour),
			},
		},
		{
			spotID: "park-point",
			want:   domain.Good,
			obs: []domain.Observation{
				model("park-point", at, 6, 6),
				buoy("park-point", "ndbc-45027", at, domain.Point(3), 6),
				wind("park-point", "surfline", at, 5, domain.W, 0.35, 3*time.Hour),
			},
		},
		{
			spotID: "picnic-rocks",
			want:   domain.Flat,
			obs: []domain.Observation{
				buoy("picnic-rocks", "ndbc-45023", at, domain.Point(0.3), 3),
				wind("picnic-rocks", "nws-mqt", at, 6, domain.S, 0.7, time.Hour),
			},
		},
		{
			spotID: "stoney-point",
			want:   domain.Firing,
			obs: []domain.Observation{
				model("stoney-point", at, 4, 7),
				buoy("stoney-point", "ndbc-45027", at, domain.Range{Min: 3.6, Max: 4.4}, 7),
				{
					SpotID: "stoney-point", SourceID: "nws-dlh", Timestamp: at,
					Metric: domain.MetricWaveHeight, Value: domain.Point(5), Unit: "ft", Period: 6,
					Reliability: 0.5, RefreshWindow: 6 * time.Hour, SensorOffline: true,
				},
				wind("stoney-point", "nws-dlh", at, 8, domain.NW, 0.7, time.Hour),
				{
					SpotID: "stoney-point", SourceID: "ndbc-45027", Timestamp: at,
					Metric: domain.MetricWaterTemp, Value: domain.Point(48), Unit: "F",
					Reliability: 0.9, RefreshWindow: time.Hour, Authoritative: true,
				},
			},
		},
	}
}

func buoy(spotID, sourceID string, at time.Time, v domain.Range, period float64) domain.Observation {
	return domain.Observation{
		SpotID: spotID, SourceID: sourceID, Timestamp: at,
		Metric: domain.MetricWaveHeight, Value: v, Unit: "ft", Period: period,
		Reliability: 0.9, RefreshWindow: time.Hour, Authoritative: true,
	}
}

func model(spotID string, at time.Time, ft, period float64) domain.Observation {
	return domain.Observation{
		SpotID: spotID, SourceID: "glos-model", Timestamp: at,
		Metric: domain.MetricWaveHeight, Value: domain.Point(ft), Unit: "ft", Period: period,
		Reliability: 0.6, RefreshWindow: 3 * time.Hour,
	}
}

func swell(spotID, sourceID string, at time.Time, ft, period float64, dir domain.Octant) domain.Observation {
	return domain.Observation{
		SpotID: spotID, SourceID: sourceID, Timestamp: at,
		Metric: domain.MetricSwell, Value: domain.Point(ft), Unit: "ft", Period: period, Direction: dir,
		Reliability: 0.6, RefreshWindow: 3 * time.Hour,
	}
}

func wind(spotID, sourceID string, at time.Time, mph float64, dir domain.Octant, reliability float64, refresh time.Duration) domain.Observation {
	return domain.Observation{
		SpotID: spotID, SourceID: sourceID, Timestamp: at,
		Metric: domain.MetricWind, Value: domain.Point(mph), Unit: "mph", Direction: dir,
		Reliability: reliability, RefreshWindow: refresh,
	}
}

// aggregate runs every scenario through the engine with the embedded
// catalogue and checks each produces its expected likelihood.
func aggregate(scenarios []scenario, clock clockwork.Clock) ([]domain.ConditionsEvent, error) {
	registry, err := spots.NewRegistry("", slog.Default())
	if err != nil {
		return nil, err
	}
	agg := pipeline.NewAggregator(registry, domain.DefaultEngineConfig(), slog.Default(), observability.NewMetricsForTesting())

	bucket := observedAt.Truncate(pipeline.BucketSize)
	events := make([]domain.ConditionsEvent, 0, len(scenarios))
	for _, s := range scenarios {
		out, err := agg.Aggregate(context.Background(), domain.AggregateRequest{
			SpotID:       s.spotID,
			Bucket:       bucket,
			AsOf:         bucket.Add(pipeline.BucketSize),
			Observations: s.obs,
		})
		if err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", s.spotID, err)
		}
		if out.SurfLikelihood != s.want {
			return nil, fmt.Errorf("%s: got %s, want %s", s.spotID, out.SurfLikelihood, s.want)
		}
		events = append(events, domain.ConditionsEvent{AggregatedConditions: out, ProcessedAt: clock.Now().Add(50 * time.Minute)})
	}
	return events, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(events []domain.ConditionsEvent) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	counts := map[domain.SurfLikelihood]int{}
	for i := range events {
		e := &events[i]
		counts[e.SurfLikelihood]++
		fmt.Printf("%-14s %-10s rating=%d wave=%.2f-%.2f ft period=%.1fs confidence=%.2f conflict=%t\n",
			e.SpotID, e.SurfLikelihood, e.Rating,
			e.WaveHeight.Value.Min, e.WaveHeight.Value.Max, e.Period, e.Confidence, e.Conflict)
		fmt.Printf("  %s\n", e.SurfReport)
	}
	fmt.Printf("By likelihood: flat=%d, maybe=%d, good=%d, firing=%d\n",
		counts[domain.Flat], counts[domain.MaybeSurf], counts[domain.Good], counts[domain.Firing])
}
