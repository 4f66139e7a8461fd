package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/couchcryptid/surf-conditions-etl/internal/observability"
)

// ProfileResolver looks up the spot profile for an aggregation.
type ProfileResolver interface {
	Resolve(spotID string) domain.SpotProfile
}

// Aggregator evaluates one (spot, bucket).
type Aggregator interface {
	Aggregate(ctx context.Context, req domain.AggregateRequest) (domain.AggregatedConditions, error)
}

// SurfAggregator implements Aggregator on top of domain.Aggregate, filling in
// the spot profile and recording outcome metrics.
type SurfAggregator struct {
	profiles ProfileResolver
	cfg      domain.EngineConfig
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewAggregator creates a SurfAggregator.
func NewAggregator(profiles ProfileResolver, cfg domain.EngineConfig, logger *slog.Logger, metrics *observability.Metrics) *SurfAggregator {
	return &SurfAggregator{profiles: profiles, cfg: cfg, logger: logger, metrics: metrics}
}

func (a *SurfAggregator) Aggregate(_ context.Context, req domain.AggregateRequest) (domain.AggregatedConditions, error) {
	if req.Profile.SpotID == "" && req.SpotID != "" {
		req.Profile = a.profiles.Resolve(req.SpotID)
	}

	out, err := domain.Aggregate(req, a.cfg)
	if err != nil {
		var noData *domain.NoDataError
		switch {
		case errors.As(err, &noData):
			a.metrics.Aggregations.WithLabelValues("no_data").Inc()
			a.recordDropped(noData.Dropped)
		case errors.Is(err, domain.ErrInvalidInput):
			a.metrics.Aggregations.WithLabelValues("invalid").Inc()
		default:
			a.metrics.Aggregations.WithLabelValues("error").Inc()
		}
		return out, err
	}

	a.metrics.Aggregations.WithLabelValues("ok").Inc()
	a.metrics.Likelihood.WithLabelValues(out.SurfLikelihood.String()).Inc()
	a.recordDropped(out.WaveHeight.DroppedSources)
	if out.Wind != nil {
		a.recordDropped(out.Wind.DroppedSources)
	}
	if out.WaterTemp != nil {
		a.recordDropped(out.WaterTemp.DroppedSources)
	}
	for _, s := range out.Swell {
		a.recordDropped(s.DroppedSources)
	}

	a.logger.Debug("bucket aggregated",
		"spot_id", out.SpotID,
		"bucket", out.Bucket,
		"likelihood", out.SurfLikelihood.String(),
		"confidence", out.Confidence,
		"conflict", out.Conflict,
	)
	return out, nil
}

func (a *SurfAggregator) recordDropped(dropped []domain.DroppedSource) {
	for _, d := range dropped {
		a.metrics.SourcesDropped.WithLabelValues(string(d.Reason)).Inc()
	}
}
