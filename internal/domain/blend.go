package domain

import (
	"math"
	"sort"
	"time"
)

// BlendConfig holds the product-judgment constants of the blender.
type BlendConfig struct {
	// Conflict tolerances: the spread between the highest and lowest source
	// beyond which the blend is flagged as conflicting.
	WaveConflictSpread  float64 // ft, applies to wave height and swell
	WindConflictSpread  float64 // mph
	WaterConflictSpread float64 // °F

	// ConflictCeiling caps the confidence of a conflicting blend.
	ConflictCeiling float64
}

// DefaultBlendConfig returns the tolerances documented for Lake Superior:
// 2 ft of wave height, 15 mph of wind, 5 °F of water temperature and a 0.5
// confidence ceiling on conflict.
func DefaultBlendConfig() BlendConfig {
	return BlendConfig{
		WaveConflictSpread:  2,
		WindConflictSpread:  15,
		WaterConflictSpread: 5,
		ConflictCeiling:     0.5,
	}
}

func (c BlendConfig) tolerance(m Metric) float64 {
	switch m {
	case MetricWind:
		return c.WindConflictSpread
	case MetricWaterTemp:
		return c.WaterConflictSpread
	default:
		return c.WaveConflictSpread
	}
}

// usable is an observation that survived filtering, in canonical units.
type usable struct {
	obs   Observation
	value Range
}

// Blend reconciles observations of one metric at one spot into a single value.
// asOf is the reference time for staleness; Blend never reads the wall clock.
//
// All observations must share SpotID and Metric, otherwise an
// *InvalidInputError is returned. Offline, stale, unreliable or unconvertible
// observations are dropped and listed in DroppedSources; if nothing remains the
// result is a *NoDataError.
func Blend(obs []Observation, asOf time.Time, cfg BlendConfig) (BlendedMetric, error) {
	if len(obs) == 0 {
		return BlendedMetric{}, &NoDataError{}
	}

	spotID, metric := obs[0].SpotID, obs[0].Metric
	if !metric.Valid() {
		return BlendedMetric{}, invalidInput("unknown metric %q", metric)
	}
	for _, o := range obs[1:] {
		if o.SpotID != spotID {
			return BlendedMetric{}, invalidInput("blend mixes spots %q and %q", spotID, o.SpotID)
		}
		if o.Metric != metric {
			return BlendedMetric{}, invalidInput("blend mixes metrics %s and %s", metric, o.Metric)
		}
	}

	kept, dropped := filterObservations(obs, asOf)
	if len(kept) == 0 {
		return BlendedMetric{}, &NoDataError{SpotID: spotID, Metric: metric, Dropped: dropped}
	}

	// Reliability order, not arrival order; ties break on source ID so the
	// result does not depend on input ordering.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].obs.Reliability != kept[j].obs.Reliability {
			return kept[i].obs.Reliability > kept[j].obs.Reliability
		}
		return kept[i].obs.SourceID < kept[j].obs.SourceID
	})

	var weightSum, minSum, maxSum, periodWeight, periodSum float64
	var directionVotes [NumOctants]float64
	lowest, highest := math.Inf(1), math.Inf(-1)
	unreliability := 1.0
	authoritative := false
	sources := make([]string, 0, len(kept))
	for _, u := range kept {
		w := u.obs.Reliability
		weightSum += w
		minSum += u.value.Min * w
		maxSum += u.value.Max * w
		if u.obs.Period > 0 {
			periodWeight += w
			periodSum += u.obs.Period * w
		}
		if u.obs.Direction.Known() {
			directionVotes[u.obs.Direction.index()] += w
		}
		mid := u.value.Mid()
		lowest = math.Min(lowest, mid)
		highest = math.Max(highest, mid)
		unreliability *= 1 - w
		authoritative = authoritative || u.obs.Authoritative
		sources = append(sources, u.obs.SourceID)
	}

	spread := highest - lowest
	tolerance := cfg.tolerance(metric)
	conflict := len(kept) > 1 && spread > tolerance

	var confidence float64
	if len(kept) == 1 {
		confidence = kept[0].obs.Reliability
	} else {
		agreement := 1.0
		if tolerance > 0 {
			agreement = 1 - 0.5*math.Min(spread/tolerance, 1)
		}
		confidence = (1 - unreliability) * agreement
	}
	if conflict && confidence > cfg.ConflictCeiling {
		confidence = cfg.ConflictCeiling
	}

	out := BlendedMetric{
		Metric:              metric,
		Value:               Range{Min: minSum / weightSum, Max: maxSum / weightSum},
		Unit:                canonicalUnit(metric),
		Direction:           directionVote(directionVotes, kept),
		Confidence:          clamp01(confidence),
		Spread:              spread,
		Conflict:            conflict,
		Provenance:          ProvenanceModeled,
		ContributingSources: sources,
		DroppedSources:      dropped,
	}
	if periodWeight > 0 {
		out.Period = periodSum / periodWeight
	}
	if authoritative {
		out.Provenance = ProvenanceObserved
	}
	return out, nil
}

// filterObservations separates usable observations from dropped ones and
// converts the usable ones to canonical units.
func filterObservations(obs []Observation, asOf time.Time) ([]usable, []DroppedSource) {
	kept := make([]usable, 0, len(obs))
	var dropped []DroppedSource
	for _, o := range obs {
		reason, ok := dropReason(o, asOf)
		if !ok {
			dropped = append(dropped, DroppedSource{SourceID: o.SourceID, Reason: reason})
			continue
		}
		v, err := normalizeValue(o.Metric, o.Unit, o.Value)
		if err != nil {
			dropped = append(dropped, DroppedSource{SourceID: o.SourceID, Reason: DropUnit})
			continue
		}
		if o.Reliability > 1 {
			o.Reliability = 1
		}
		kept = append(kept, usable{obs: o, value: v})
	}
	sort.Slice(dropped, func(i, j int) bool {
		if dropped[i].SourceID != dropped[j].SourceID {
			return dropped[i].SourceID < dropped[j].SourceID
		}
		return dropped[i].Reason < dropped[j].Reason
	})
	return kept, dropped
}

func dropReason(o Observation, asOf time.Time) (DropReason, bool) {
	switch {
	case o.SensorOffline:
		return DropOffline, false
	case o.Reliability <= 0 || math.IsNaN(o.Reliability):
		return DropUnreliable, false
	case !finiteRange(o.Value) || o.Value.Min < 0 && o.Metric != MetricWaterTemp:
		return DropInvalidData, false
	case o.RefreshWindow > 0 && asOf.Sub(o.Timestamp) > o.RefreshWindow:
		return DropStale, false
	}
	return "", true
}

// directionVote picks the octant with the most reliability weight. Ties go to
// the octant reported by the most reliable source.
func directionVote(votes [NumOctants]float64, kept []usable) Octant {
	best, bestWeight := OctantUnknown, 0.0
	for _, u := range kept {
		o := u.obs.Direction
		if !o.Known() {
			continue
		}
		if w := votes[o.index()]; w > bestWeight {
			best, bestWeight = o, w
		}
	}
	return best
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
