package domain

// WindQuality is the local grooming effect of the wind at a spot.
type WindQuality string

const (
	WindClean      WindQuality = "clean"
	WindOnshore    WindQuality = "onshore"
	WindCrossShore WindQuality = "cross-shore"
	WindStrong     WindQuality = "strong"
)

// lightCrossShoreFraction is the share of a spot's GoodWindMax below which
// cross-shore wind is light enough to count as clean.
const lightCrossShoreFraction = 0.5

// WindAssessment is the result of classifying wind at a spot.
type WindAssessment struct {
	Quality   WindQuality `json:"quality"`
	Exposure  Exposure    `json:"exposure,omitempty"`
	Direction Octant      `json:"direction,omitempty"`
	Speed     float64     `json:"speed_mph"`
	// LowConfidence is set when the direction was unknown and the quality
	// fell back to cross-shore.
	LowConfidence bool `json:"low_confidence"`
}

// ClassifyWind maps a wind direction and speed to a quality tier using the
// spot's exposure table and thresholds:
//
//   - onshore wind is Onshore at any speed
//   - any other wind at or above FiringWindMax is Strong
//   - offshore wind below GoodWindMax is Clean
//   - cross-shore wind below half of GoodWindMax is Clean
//   - everything else is CrossShore
//
// An unknown direction never yields Clean: it is CrossShore (or Strong) with
// LowConfidence set.
func ClassifyWind(profile SpotProfile, direction Octant, speedMph float64) WindAssessment {
	t := profile.Thresholds
	a := WindAssessment{Direction: direction, Speed: speedMph}

	exposure, known := profile.ExposureFor(direction)
	if !known || !exposure.Valid() {
		a.LowConfidence = true
		a.Quality = WindCrossShore
		if speedMph >= t.FiringWindMax {
			a.Quality = WindStrong
		}
		return a
	}
	a.Exposure = exposure

	switch {
	case exposure == ExposureOnshore:
		a.Quality = WindOnshore
	case speedMph >= t.FiringWindMax:
		a.Quality = WindStrong
	case exposure == ExposureOffshore && speedMph < t.GoodWindMax:
		a.Quality = WindClean
	case exposure == ExposureCrossShore && speedMph < t.GoodWindMax*lightCrossShoreFraction:
		a.Quality = WindClean
	default:
		a.Quality = WindCrossShore
	}
	return a
}
