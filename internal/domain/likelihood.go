package domain

import (
	"fmt"
	"math"
)

// SurfLikelihood is the four-state surf conclusion, ordered by severity.
type SurfLikelihood uint8

const (
	Flat SurfLikelihood = iota
	MaybeSurf
	Good
	Firing
)

var likelihoodNames = [...]string{"Flat", "Maybe Surf", "Good", "Firing"}

func (l SurfLikelihood) String() string {
	if int(l) < len(likelihoodNames) {
		return likelihoodNames[l]
	}
	return fmt.Sprintf("SurfLikelihood(%d)", uint8(l))
}

// MarshalText renders the display name, e.g. "Maybe Surf".
func (l SurfLikelihood) MarshalText() ([]byte, error) {
	if int(l) >= len(likelihoodNames) {
		return nil, fmt.Errorf("invalid surf likelihood %d", uint8(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText parses a display name.
func (l *SurfLikelihood) UnmarshalText(b []byte) error {
	for i, name := range likelihoodNames {
		if name == string(b) {
			*l = SurfLikelihood(i)
			return nil
		}
	}
	return fmt.Errorf("unknown surf likelihood %q", b)
}

// DefaultLowConfidenceThreshold is the confidence below which Firing is
// capped at Good.
const DefaultLowConfidenceThreshold = 0.4

// LikelihoodInput is everything the likelihood classifier looks at.
type LikelihoodInput struct {
	Wave       Range   // blended wave height, ft
	Period     float64 // dominant period, s
	Wind       WindAssessment
	Confidence float64 // lowest confidence among the blended inputs
}

// ClassifyLikelihood applies the spot thresholds in order, first match wins:
//
//  1. wave max below FlatMax → Flat
//  2. wave min ≥ FiringMin, period ≥ FiringPeriodMin, wind ≤ FiringWindMax
//     and not onshore → Firing
//  3. wave min ≥ GoodMin, period ≥ GoodPeriodMin, wind not strong → Good,
//     downgraded to Maybe Surf when the wind is onshore
//  4. wave min ≥ MaybeMin, period ≥ MaybePeriodMin → Maybe Surf
//  5. otherwise Flat
//
// Wind exactly at FiringWindMax is Strong but still admits Firing. Wind can
// hold or lower a tier, never raise one. When in.Confidence is below
// lowConfidence the result is capped at Good.
func ClassifyLikelihood(in LikelihoodInput, t SpotSurfThresholds, lowConfidence float64) SurfLikelihood {
	if math.IsNaN(in.Wave.Max) || in.Wave.Max < t.FlatMax {
		return Flat
	}

	wind := in.Wind.Quality
	if in.Wave.Min >= t.FiringMin &&
		in.Period >= t.FiringPeriodMin &&
		in.Wind.Speed <= t.FiringWindMax &&
		wind != WindOnshore {
		if in.Confidence < lowConfidence {
			return Good
		}
		return Firing
	}

	if in.Wave.Min >= t.GoodMin && in.Period >= t.GoodPeriodMin && wind != WindStrong {
		if wind == WindOnshore {
			return MaybeSurf
		}
		return Good
	}

	if in.Wave.Min >= t.MaybeMin && in.Period >= t.MaybePeriodMin {
		return MaybeSurf
	}

	return Flat
}

// Rating turns a classification into a 1–10 score. Each tier owns a band
// (Flat 1–2, Maybe Surf 3–4, Good 5–7, Firing 8–10) so the rating can never
// disagree with the likelihood; within the band, size relative to the tier
// gate and wind quality move the score.
func Rating(l SurfLikelihood, in LikelihoodInput, t SpotSurfThresholds) int {
	type band struct {
		low, high int
		gate      float64
	}
	var b band
	switch l {
	case Firing:
		b = band{8, 10, t.FiringMin}
	case Good:
		b = band{5, 7, t.GoodMin}
	case MaybeSurf:
		b = band{3, 4, t.MaybeMin}
	default:
		b = band{1, 2, t.FlatMax}
	}

	score := b.low
	if b.gate > 0 && in.Wave.Min >= b.gate*1.5 {
		score++
	}
	if in.Wind.Quality == WindClean {
		score++
	}
	if l == Flat && in.Wave.Max < t.FlatMax {
		score = b.low
	}
	if score > b.high {
		score = b.high
	}
	return score
}
