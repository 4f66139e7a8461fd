package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Metric identifies the physical quantity an observation reports.
type Metric string

const (
	MetricWaveHeight Metric = "wave_height"
	MetricWind       Metric = "wind"
	MetricWaterTemp  Metric = "water_temp"
	MetricSwell      Metric = "swell"
)

// Valid reports whether m is one of the known metrics.
func (m Metric) Valid() bool {
	switch m {
	case MetricWaveHeight, MetricWind, MetricWaterTemp, MetricSwell:
		return true
	default:
		return false
	}
}

// Range is a min/max pair. A point value has Min == Max.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Point returns a Range holding a single value.
func Point(v float64) Range { return Range{Min: v, Max: v} }

// Mid returns the midpoint of the range.
func (r Range) Mid() float64 { return (r.Min + r.Max) / 2 }

func (r Range) scale(f float64) Range { return Range{Min: r.Min * f, Max: r.Max * f} }

// Observation is one provider's report of one metric for one spot. Provider
// adapters produce it; only the Blender consumes it.
type Observation struct {
	SpotID    string
	SourceID  string
	Timestamp time.Time
	Metric    Metric
	Value     Range
	Unit      string

	// Period is the dominant wave or swell period in seconds, 0 when unreported.
	Period float64
	// Direction is the direction the wind or swell comes from.
	Direction Octant

	Reliability   float64       // 0..1, provider-declared
	RefreshWindow time.Duration // 0 disables the staleness check
	SensorOffline bool          // buoy out of water or damaged
	Authoritative bool          // direct measurement, e.g. a live buoy
}

// DropReason explains why an observation was excluded from a blend.
type DropReason string

const (
	DropOffline     DropReason = "offline"
	DropStale       DropReason = "stale"
	DropUnreliable  DropReason = "unreliable"
	DropUnit        DropReason = "unit"
	DropInvalidData DropReason = "invalid_value"
)

// DroppedSource records an excluded observation for diagnostics.
type DroppedSource struct {
	SourceID string     `json:"source_id"`
	Reason   DropReason `json:"reason"`
}

// Provenance summarizes where a blended value came from.
type Provenance string

const (
	// ProvenanceObserved means at least one authoritative source contributed.
	ProvenanceObserved Provenance = "observed"
	// ProvenanceModeled means only model or forecast sources contributed.
	ProvenanceModeled Provenance = "modeled"
	// ProvenanceDerived means the value was derived from another metric
	// (wave height taken from the dominant swell).
	ProvenanceDerived Provenance = "derived"
)

// BlendedMetric is the reconciled value of one metric across sources.
type BlendedMetric struct {
	Metric              Metric          `json:"metric"`
	Value               Range           `json:"value"`
	Unit                string          `json:"unit"`
	Period              float64         `json:"period,omitempty"`
	Direction           Octant          `json:"direction,omitempty"`
	Confidence          float64         `json:"confidence"`
	Spread              float64         `json:"spread"`
	Conflict            bool            `json:"conflict"`
	Provenance          Provenance      `json:"provenance"`
	ContributingSources []string        `json:"contributing_sources"`
	DroppedSources      []DroppedSource `json:"dropped_sources,omitempty"`
}

// canonicalUnit is the unit every metric is blended in.
func canonicalUnit(m Metric) string {
	switch m {
	case MetricWaveHeight, MetricSwell:
		return "ft"
	case MetricWind:
		return "mph"
	case MetricWaterTemp:
		return "F"
	default:
		return ""
	}
}

// normalizeValue converts a value to the canonical unit of its metric. An
// empty unit is read as already canonical.
func normalizeValue(m Metric, unit string, v Range) (Range, error) {
	unit = strings.ToLower(strings.TrimSpace(unit))
	switch m {
	case MetricWaveHeight, MetricSwell:
		switch unit {
		case "", "ft", "feet":
			return v, nil
		case "m", "meters":
			return v.scale(3.28084), nil
		}
	case MetricWind:
		switch unit {
		case "", "mph":
			return v, nil
		case "kt", "kts", "knots":
			return v.scale(1.15078), nil
		case "m/s", "mps":
			return v.scale(2.23694), nil
		case "km/h", "kph":
			return v.scale(0.621371), nil
		}
	case MetricWaterTemp:
		switch unit {
		case "", "f", "degf":
			return v, nil
		case "c", "degc":
			return Range{Min: v.Min*9/5 + 32, Max: v.Max*9/5 + 32}, nil
		}
	}
	return Range{}, fmt.Errorf("unsupported unit %q for %s", unit, m)
}

func finiteRange(r Range) bool {
	for _, v := range []float64{r.Min, r.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Min <= r.Max
}
