package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// InsightInput is what the insight generator reads. Optional metrics are nil
// when no provider reported them.
type InsightInput struct {
	Likelihood    SurfLikelihood
	Wave          BlendedMetric
	Period        float64
	Wind          WindAssessment
	WindBlend     *BlendedMetric
	WaterTemp     *BlendedMetric
	Swell         []BlendedMetric
	Thresholds    SpotSurfThresholds
	Confidence    float64
	LowConfidence float64
	Dropped       []DroppedSource
}

// Insight is the human-readable part of an aggregation.
type Insight struct {
	SurfReport      string
	Recommendations []string
	Notes           []string
}

// GenerateInsight builds the surf report, recommendations and notes. It is a
// pure function: identical inputs always produce identical text.
func GenerateInsight(in InsightInput) Insight {
	return Insight{
		SurfReport:      surfReport(in),
		Recommendations: recommendations(in),
		Notes:           notes(in),
	}
}

func surfReport(in InsightInput) string {
	size := formatHeight(in.Wave.Value)
	period := formatPeriod(in.Period)
	wind := windPhrase(in.Wind, in.WindBlend != nil)

	switch in.Likelihood {
	case Firing:
		return fmt.Sprintf("Firing: %s at %s with %s. Drop everything and go.", size, period, wind)
	case Good:
		return fmt.Sprintf("Good: %s at %s with %s. Rideable lake surf.", size, period, wind)
	case MaybeSurf:
		return fmt.Sprintf("Maybe Surf: %s at %s, %s. Worth a look if you're close.", size, period, wind)
	default:
		return fmt.Sprintf("Flat: %s at %s, %s. The lake is resting.", size, period, wind)
	}
}

func recommendations(in InsightInput) []string {
	var out []string
	switch in.Likelihood {
	case Firing:
		out = append(out, "Bring your step-up and expect a crowd at the main peaks.")
	case Good:
		out = append(out, "Shortboard or funboard conditions.")
	case MaybeSurf:
		out = append(out, "Bring a longboard or foamie.")
	default:
		out = append(out, "No surf expected; check back when a storm builds fetch across the lake.")
	}

	if in.Likelihood != Flat {
		switch in.Wind.Quality {
		case WindOnshore:
			out = append(out, fmt.Sprintf("Onshore %s wind is chopping it up; look for a break sheltered from the %s.",
				in.Wind.Direction, in.Wind.Direction))
		case WindStrong:
			out = append(out, "Strong wind: experienced surfers only.")
		}
	}

	if in.WaterTemp != nil {
		out = append(out, wetsuitAdvice(in.WaterTemp.Value.Mid()))
	}
	return out
}

func wetsuitAdvice(tempF float64) string {
	t := math.Round(tempF)
	switch {
	case tempF < 45:
		return fmt.Sprintf("Water %.0f°F: 6/5 hooded wetsuit, 7 mm boots and mitts.", t)
	case tempF < 55:
		return fmt.Sprintf("Water %.0f°F: 5/4 hooded wetsuit, boots and gloves.", t)
	case tempF < 62:
		return fmt.Sprintf("Water %.0f°F: 4/3 wetsuit and boots.", t)
	default:
		return fmt.Sprintf("Water %.0f°F: 3/2 wetsuit.", t)
	}
}

func notes(in InsightInput) []string {
	var out []string
	if c := in.Thresholds.Confidence; c != "" {
		out = append(out, "Threshold confidence: "+string(c))
	}
	if n := strings.TrimSpace(in.Thresholds.Notes); n != "" {
		out = append(out, in.Thresholds.Notes)
	}

	if in.Wave.Conflict {
		out = append(out, "Sources disagree on wave height — showing best estimate.")
	}
	if in.WindBlend != nil && in.WindBlend.Conflict {
		out = append(out, "Sources disagree on wind — showing best estimate.")
	}
	if in.WaterTemp != nil && in.WaterTemp.Conflict {
		out = append(out, "Sources disagree on water temperature — showing best estimate.")
	}
	for _, sw := range in.Swell {
		if sw.Conflict {
			out = append(out, "Sources disagree on swell — showing best estimate.")
			break
		}
	}

	if in.Confidence < in.LowConfidence {
		out = append(out, fmt.Sprintf("Low confidence (%.0f%%): treat this as a rough estimate.", in.Confidence*100))
	}

	switch {
	case in.WindBlend == nil:
		out = append(out, "No wind data; assuming cross-shore wind.")
	case in.Wind.LowConfidence:
		out = append(out, "Wind direction unknown; assuming cross-shore wind.")
	}

	switch in.Wave.Provenance {
	case ProvenanceModeled:
		out = append(out, "No live buoy report; wave height is from forecast models only.")
	case ProvenanceDerived:
		out = append(out, "No wave height reports; estimated from the dominant swell.")
	}

	if in.Period <= 0 {
		out = append(out, "No wave period reported.")
	}

	if len(in.Dropped) > 0 {
		out = append(out, droppedNote(in.Dropped))
	}
	return out
}

func droppedNote(dropped []DroppedSource) string {
	seen := make(map[string]bool, len(dropped))
	labels := make([]string, 0, len(dropped))
	for _, d := range dropped {
		label := fmt.Sprintf("%s (%s)", d.SourceID, d.Reason)
		if seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return fmt.Sprintf("Ignored %d source reports: %s.", len(labels), strings.Join(labels, ", "))
}

func formatHeight(r Range) string {
	if r.Max-r.Min < 0.05 {
		return fmt.Sprintf("%.1f ft", r.Max)
	}
	return fmt.Sprintf("%.1f-%.1f ft", r.Min, r.Max)
}

func formatPeriod(p float64) string {
	if p <= 0 {
		return "unknown period"
	}
	return fmt.Sprintf("%.0fs", p)
}

func windPhrase(w WindAssessment, reported bool) string {
	if !reported {
		return "no wind data"
	}
	speed := math.Round(w.Speed)
	if !w.Direction.Known() {
		return fmt.Sprintf("%.0f mph wind from an unknown direction", speed)
	}
	switch w.Quality {
	case WindClean:
		return fmt.Sprintf("clean %s %s wind at %.0f mph", w.Exposure, w.Direction, speed)
	case WindStrong:
		return fmt.Sprintf("strong %s wind at %.0f mph", w.Direction, speed)
	default:
		return fmt.Sprintf("%s %s wind at %.0f mph", w.Exposure, w.Direction, speed)
	}
}
