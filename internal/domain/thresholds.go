package domain

import (
	"errors"
	"fmt"
)

// ThresholdConfidence describes how well a spot's thresholds are known.
type ThresholdConfidence string

const (
	ThresholdEstimated ThresholdConfidence = "estimated" // guessed from exposure and fetch
	ThresholdValidated ThresholdConfidence = "validated" // checked against logged sessions
	ThresholdLocal     ThresholdConfidence = "local"     // supplied by local surfers
)

// Valid reports whether c is empty or one of the known confidence levels.
func (c ThresholdConfidence) Valid() bool {
	switch c {
	case "", ThresholdEstimated, ThresholdValidated, ThresholdLocal:
		return true
	default:
		return false
	}
}

// SpotSurfThresholds are the per-spot gates for each likelihood tier.
// Heights are feet, periods seconds, wind mph.
type SpotSurfThresholds struct {
	FlatMax float64 `json:"flat_max" yaml:"flat_max"`

	MaybeMin       float64 `json:"maybe_min" yaml:"maybe_min"`
	MaybePeriodMin float64 `json:"maybe_period_min" yaml:"maybe_period_min"`

	GoodMin       float64 `json:"good_min" yaml:"good_min"`
	GoodPeriodMin float64 `json:"good_period_min" yaml:"good_period_min"`
	GoodWindMax   float64 `json:"good_wind_max" yaml:"good_wind_max"`

	FiringMin       float64 `json:"firing_min" yaml:"firing_min"`
	FiringPeriodMin float64 `json:"firing_period_min" yaml:"firing_period_min"`
	FiringWindMax   float64 `json:"firing_wind_max" yaml:"firing_wind_max"`

	Confidence ThresholdConfidence `json:"threshold_confidence,omitempty" yaml:"threshold_confidence,omitempty"`
	Notes      string              `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// DefaultThresholds returns the Lake Superior default profile:
//
//	flat   < 0.5 ft
//	maybe  ≥ 0.5 ft @ 4 s
//	good   ≥ 1.5 ft @ 5 s, wind ≤ 12 mph
//	firing ≥ 3 ft   @ 6 s, wind ≤ 12 mph
func DefaultThresholds() SpotSurfThresholds {
	return SpotSurfThresholds{
		FlatMax:         0.5,
		MaybeMin:        0.5,
		MaybePeriodMin:  4,
		GoodMin:         1.5,
		GoodPeriodMin:   5,
		GoodWindMax:     12,
		FiringMin:       3,
		FiringPeriodMin: 6,
		FiringWindMax:   12,
		Confidence:      ThresholdEstimated,
	}
}

// ThresholdOverrides holds the fields a spot changes relative to the
// defaults. Nil fields keep the base value.
type ThresholdOverrides struct {
	FlatMax         *float64             `yaml:"flat_max,omitempty"`
	MaybeMin        *float64             `yaml:"maybe_min,omitempty"`
	MaybePeriodMin  *float64             `yaml:"maybe_period_min,omitempty"`
	GoodMin         *float64             `yaml:"good_min,omitempty"`
	GoodPeriodMin   *float64             `yaml:"good_period_min,omitempty"`
	GoodWindMax     *float64             `yaml:"good_wind_max,omitempty"`
	FiringMin       *float64             `yaml:"firing_min,omitempty"`
	FiringPeriodMin *float64             `yaml:"firing_period_min,omitempty"`
	FiringWindMax   *float64             `yaml:"firing_wind_max,omitempty"`
	Confidence      *ThresholdConfidence `yaml:"threshold_confidence,omitempty"`
	Notes           *string              `yaml:"notes,omitempty"`
}

// MergeThresholds applies overrides onto base and returns the result. base is
// not modified and every field without an override is preserved as-is.
func MergeThresholds(base SpotSurfThresholds, o ThresholdOverrides) SpotSurfThresholds {
	out := base
	setFloat(&out.FlatMax, o.FlatMax)
	setFloat(&out.MaybeMin, o.MaybeMin)
	setFloat(&out.MaybePeriodMin, o.MaybePeriodMin)
	setFloat(&out.GoodMin, o.GoodMin)
	setFloat(&out.GoodPeriodMin, o.GoodPeriodMin)
	setFloat(&out.GoodWindMax, o.GoodWindMax)
	setFloat(&out.FiringMin, o.FiringMin)
	setFloat(&out.FiringPeriodMin, o.FiringPeriodMin)
	setFloat(&out.FiringWindMax, o.FiringWindMax)
	if o.Confidence != nil {
		out.Confidence = *o.Confidence
	}
	if o.Notes != nil {
		out.Notes = *o.Notes
	}
	return out
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the severity ordering flatMax ≤ maybeMin ≤ goodMin ≤ firingMin
// and that no gate is negative.
func (t SpotSurfThresholds) Validate() error {
	var errs []error
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"flat_max", t.FlatMax},
		{"maybe_min", t.MaybeMin},
		{"maybe_period_min", t.MaybePeriodMin},
		{"good_min", t.GoodMin},
		{"good_period_min", t.GoodPeriodMin},
		{"good_wind_max", t.GoodWindMax},
		{"firing_min", t.FiringMin},
		{"firing_period_min", t.FiringPeriodMin},
		{"firing_wind_max", t.FiringWindMax},
	} {
		if f.value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative (got %g)", f.name, f.value))
		}
	}
	if t.FlatMax > t.MaybeMin {
		errs = append(errs, fmt.Errorf("flat_max %g exceeds maybe_min %g", t.FlatMax, t.MaybeMin))
	}
	if t.MaybeMin > t.GoodMin {
		errs = append(errs, fmt.Errorf("maybe_min %g exceeds good_min %g", t.MaybeMin, t.GoodMin))
	}
	if t.GoodMin > t.FiringMin {
		errs = append(errs, fmt.Errorf("good_min %g exceeds firing_min %g", t.GoodMin, t.FiringMin))
	}
	if !t.Confidence.Valid() {
		errs = append(errs, fmt.Errorf("unknown threshold_confidence %q", t.Confidence))
	}
	return errors.Join(errs...)
}
