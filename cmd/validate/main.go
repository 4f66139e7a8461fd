// Command validate checks a spot catalogue and, optionally, an observation
// fixture against the aggregation engine. It verifies that every profile
// resolves, that every fixture message decodes for a known spot, and that
// aggregating the fixture is deterministic and internally consistent.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -spots internal/spots/spots.yaml \
//	  -fixture data/mock/observations_251015.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/couchcryptid/surf-conditions-etl/internal/observability"
	"github.com/couchcryptid/surf-conditions-etl/internal/pipeline"
	"github.com/couchcryptid/surf-conditions-etl/internal/spots"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	spotsPath := flag.String("spots", "", "path to a spot catalogue YAML file (empty validates the embedded catalogue)")
	fixturePath := flag.String("fixture", "", "optional path to an observation fixture JSON file")
	flag.Parse()

	if code := run(*spotsPath, *fixturePath); code != 0 {
		os.Exit(code)
	}
}

func run(spotsPath, fixturePath string) int {
	fmt.Println("=== Surf Conditions Validation ===")
	fmt.Println()

	catalogue := &phase{name: "Phase 1: Spot Catalogue (YAML)"}
	store, err := spots.Load(spotsPath)
	if err != nil {
		catalogue.errorf("%v", err)
	}

	phases := []*phase{catalogue}
	var messages []pipeline.ObservationMessage
	if store != nil {
		phases = append(phases, validateProfiles(store))

		if fixturePath != "" {
			messages, err = loadJSON[pipeline.ObservationMessage](fixturePath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
				return 1
			}
			decoded, p := validateFixture(messages, store)
			phases = append(phases, p, validateAggregation(decoded, store))
		}
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Spots: %d, fixture messages: %d\n", store.Len(), len(messages))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 2: Profiles ──
// A spot that no wind direction can groom is almost certainly misconfigured.

func validateProfiles(store *domain.ProfileStore) *phase {
	p := &phase{name: "Phase 2: Profiles (exposure, thresholds)"}
	for _, prof := range store.Profiles() {
		if err := prof.Validate(); err != nil {
			p.errorf("%v", err)
		}
		if prof.Name == "" {
			p.errorf("spot %q: name is empty", prof.SpotID)
		}

		var offshore, onshore int
		for _, o := range domain.Octants() {
			e, _ := prof.ExposureFor(o)
			switch e {
			case domain.ExposureOffshore:
				offshore++
			case domain.ExposureOnshore:
				onshore++
			}
		}
		if offshore == 0 {
			p.errorf("spot %q: no offshore octant, wind can never be clean", prof.SpotID)
		}
		if onshore == 0 {
			p.errorf("spot %q: no onshore octant", prof.SpotID)
		}
	}
	return p
}

// ── Phase 3: Fixture ──

func validateFixture(messages []pipeline.ObservationMessage, store *domain.ProfileStore) ([]domain.Observation, *phase) {
	p := &phase{name: "Phase 3: Fixture (decode, known spots)"}
	out := make([]domain.Observation, 0, len(messages))
	for i, msg := range messages {
		obs, err := msg.Observation()
		if err != nil {
			p.errorf("message %d: %v", i, err)
			continue
		}
		if _, ok := store.Lookup(obs.SpotID); !ok {
			p.errorf("message %d: spot %q is not in the catalogue", i, obs.SpotID)
		}
		out = append(out, obs)
	}
	return out, p
}

// ── Phase 4: Aggregation ──
// Each (spot, bucket) must aggregate, produce a rating inside its tier band,
// carry insight text and give the same answer when re-run in reverse order.

var ratingBands = map[domain.SurfLikelihood][2]int{
	domain.Flat:      {1, 2},
	domain.MaybeSurf: {3, 4},
	domain.Good:      {5, 7},
	domain.Firing:    {8, 10},
}

func validateAggregation(observations []domain.Observation, store *domain.ProfileStore) *phase {
	p := &phase{name: "Phase 4: Aggregation (determinism, bands)"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := pipeline.NewAggregator(spots.NewStaticRegistry(store, logger), domain.DefaultEngineConfig(), logger, observability.NewMetricsForTesting())

	groups := make(map[pipeline.BucketKey][]domain.Observation)
	var keys []pipeline.BucketKey
	for _, o := range observations {
		key := pipeline.BucketFor(o)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], o)
	}

	for _, key := range keys {
		obs := groups[key]
		req := domain.AggregateRequest{SpotID: key.SpotID, Bucket: key.Bucket, AsOf: key.End(), Observations: obs}
		out, err := agg.Aggregate(context.Background(), req)
		if err != nil {
			p.errorf("%s @ %s: %v", key.SpotID, key.Bucket.Format("2006-01-02T15:04Z"), err)
			continue
		}

		band := ratingBands[out.SurfLikelihood]
		if out.Rating < band[0] || out.Rating > band[1] {
			p.errorf("%s: rating %d outside %s band %v", key.SpotID, out.Rating, out.SurfLikelihood, band)
		}
		if out.SurfReport == "" || len(out.Recommendations) == 0 {
			p.errorf("%s: missing insight text", key.SpotID)
		}
		if out.Confidence < 0 || out.Confidence > 1 {
			p.errorf("%s: confidence %g outside [0,1]", key.SpotID, out.Confidence)
		}

		reversed := make([]domain.Observation, len(obs))
		for i := range obs {
			reversed[len(obs)-1-i] = obs[i]
		}
		req.Observations = reversed
		again, err := agg.Aggregate(context.Background(), req)
		if err != nil || !reflect.DeepEqual(out, again) {
			p.errorf("%s: result depends on observation order", key.SpotID)
		}

		fmt.Printf("  %-14s %-10s rating=%d confidence=%.2f\n", key.SpotID, out.SurfLikelihood, out.Rating, out.Confidence)
	}
	return p
}
