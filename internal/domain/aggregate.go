package domain

import (
	"errors"
	"math"
	"sort"
	"time"
)

// EngineConfig bundles the tunable constants of an aggregation.
type EngineConfig struct {
	Blend BlendConfig
	// LowConfidenceThreshold caps Firing at Good and adds a low-confidence
	// note when the input confidence falls below it.
	LowConfidenceThreshold float64
}

// DefaultEngineConfig returns the documented defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Blend:                  DefaultBlendConfig(),
		LowConfidenceThreshold: DefaultLowConfidenceThreshold,
	}
}

// AggregateRequest is one (spot, time bucket) to evaluate.
type AggregateRequest struct {
	SpotID string
	Bucket time.Time
	// AsOf is the staleness reference: observations older than their refresh
	// window at AsOf are dropped. Zero means Bucket.
	AsOf         time.Time
	Observations []Observation
	Profile      SpotProfile
}

// AggregatedConditions is the engine's output for one spot and time bucket.
// It is built fresh on every call and never mutated afterwards.
type AggregatedConditions struct {
	SpotID   string    `json:"spot_id"`
	SpotName string    `json:"spot_name"`
	Shore    Shore     `json:"shore"`
	Bucket   time.Time `json:"bucket"`

	WaveHeight  BlendedMetric   `json:"wave_height"`
	Period      float64         `json:"period"`
	Wind        *BlendedMetric  `json:"wind,omitempty"`
	WindQuality WindAssessment  `json:"wind_quality"`
	Swell       []BlendedMetric `json:"swell"`
	WaterTemp   *BlendedMetric  `json:"water_temp,omitempty"`

	Confidence    float64 `json:"confidence"`
	LowConfidence bool    `json:"low_confidence"`
	Conflict      bool    `json:"conflict"`

	Rating          int            `json:"rating"`
	SurfLikelihood  SurfLikelihood `json:"surf_likelihood"`
	SurfReport      string         `json:"surf_report"`
	Recommendations []string       `json:"recommendations"`
	Notes           []string       `json:"notes"`
}

// Aggregate blends the observations, classifies wind and surf likelihood and
// writes the insight text, in that order.
//
// Wave height is required. Without wave height reports the dominant swell
// stands in (provenance "derived"); without either, a *NoDataError is
// returned. Wind, water temperature and swell are optional. Observations for
// another spot or of an unknown metric are rejected with *InvalidInputError.
func Aggregate(req AggregateRequest, cfg EngineConfig) (AggregatedConditions, error) {
	if req.SpotID == "" {
		return AggregatedConditions{}, invalidInput("spot id is required")
	}
	if req.Profile.SpotID != "" && req.Profile.SpotID != req.SpotID {
		return AggregatedConditions{}, invalidInput("profile %q does not match spot %q", req.Profile.SpotID, req.SpotID)
	}
	if len(req.Observations) == 0 {
		return AggregatedConditions{}, &NoDataError{SpotID: req.SpotID, Metric: MetricWaveHeight}
	}

	byMetric := make(map[Metric][]Observation, 4)
	for _, o := range req.Observations {
		if o.SpotID != req.SpotID {
			return AggregatedConditions{}, invalidInput("observation from %q for spot %q in request for %q", o.SourceID, o.SpotID, req.SpotID)
		}
		if !o.Metric.Valid() {
			return AggregatedConditions{}, invalidInput("observation from %q has unknown metric %q", o.SourceID, o.Metric)
		}
		byMetric[o.Metric] = append(byMetric[o.Metric], o)
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = req.Bucket
	}

	var dropped []DroppedSource
	blendOptional := func(obs []Observation) (*BlendedMetric, error) {
		if len(obs) == 0 {
			return nil, nil
		}
		b, err := Blend(obs, asOf, cfg.Blend)
		var noData *NoDataError
		if errors.As(err, &noData) {
			dropped = append(dropped, noData.Dropped...)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		dropped = append(dropped, b.DroppedSources...)
		return &b, nil
	}

	wave, err := blendOptional(byMetric[MetricWaveHeight])
	if err != nil {
		return AggregatedConditions{}, err
	}
	swells, err := blendSwells(byMetric[MetricSwell], asOf, cfg.Blend, &dropped)
	if err != nil {
		return AggregatedConditions{}, err
	}
	if wave == nil {
		if len(swells) == 0 {
			return AggregatedConditions{}, &NoDataError{SpotID: req.SpotID, Metric: MetricWaveHeight, Dropped: dropped}
		}
		derived := swells[0]
		derived.Metric = MetricWaveHeight
		derived.Provenance = ProvenanceDerived
		derived.ContributingSources = append([]string(nil), swells[0].ContributingSources...)
		derived.DroppedSources = nil
		wave = &derived
	}

	wind, err := blendOptional(byMetric[MetricWind])
	if err != nil {
		return AggregatedConditions{}, err
	}
	water, err := blendOptional(byMetric[MetricWaterTemp])
	if err != nil {
		return AggregatedConditions{}, err
	}

	period := wave.Period
	if period <= 0 && len(swells) > 0 {
		period = swells[0].Period
	}

	profile := req.Profile
	if profile.SpotID == "" {
		profile = DefaultProfile(req.SpotID)
	}

	assessment := ClassifyWind(profile, OctantUnknown, 0)
	confidence := wave.Confidence
	if wind != nil {
		assessment = ClassifyWind(profile, wind.Direction, wind.Value.Max)
		confidence = math.Min(confidence, wind.Confidence)
	}

	in := LikelihoodInput{
		Wave:       wave.Value,
		Period:     period,
		Wind:       assessment,
		Confidence: confidence,
	}
	likelihood := ClassifyLikelihood(in, profile.Thresholds, cfg.LowConfidenceThreshold)

	insight := GenerateInsight(InsightInput{
		Likelihood:    likelihood,
		Wave:          *wave,
		Period:        period,
		Wind:          assessment,
		WindBlend:     wind,
		WaterTemp:     water,
		Swell:         swells,
		Thresholds:    profile.Thresholds,
		Confidence:    confidence,
		LowConfidence: cfg.LowConfidenceThreshold,
		Dropped:       dropped,
	})

	conflict := wave.Conflict || (wind != nil && wind.Conflict) || (water != nil && water.Conflict)
	for _, s := range swells {
		conflict = conflict || s.Conflict
	}

	return AggregatedConditions{
		SpotID:          req.SpotID,
		SpotName:        profile.Name,
		Shore:           profile.Shore,
		Bucket:          req.Bucket,
		WaveHeight:      *wave,
		Period:          period,
		Wind:            wind,
		WindQuality:     assessment,
		Swell:           swells,
		WaterTemp:       water,
		Confidence:      confidence,
		LowConfidence:   confidence < cfg.LowConfidenceThreshold,
		Conflict:        conflict,
		Rating:          Rating(likelihood, in, profile.Thresholds),
		SurfLikelihood:  likelihood,
		SurfReport:      insight.SurfReport,
		Recommendations: insight.Recommendations,
		Notes:           insight.Notes,
	}, nil
}

// blendSwells blends swell observations per arrival direction and returns the
// components largest first.
func blendSwells(obs []Observation, asOf time.Time, cfg BlendConfig, dropped *[]DroppedSource) ([]BlendedMetric, error) {
	groups := make(map[Octant][]Observation)
	for _, o := range obs {
		groups[o.Direction] = append(groups[o.Direction], o)
	}

	out := make([]BlendedMetric, 0, len(groups))
	for _, group := range groups {
		b, err := Blend(group, asOf, cfg)
		var noData *NoDataError
		if errors.As(err, &noData) {
			*dropped = append(*dropped, noData.Dropped...)
			continue
		}
		if err != nil {
			return nil, err
		}
		*dropped = append(*dropped, b.DroppedSources...)
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Value.Max != out[j].Value.Max {
			return out[i].Value.Max > out[j].Value.Max
		}
		return out[i].Direction < out[j].Direction
	})
	return out, nil
}
