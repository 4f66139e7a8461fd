package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/couchcryptid/surf-conditions-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// BatchLoader writes multiple conditions events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.ConditionsEvent) error
}

// Pipeline orchestrates the extract-window-aggregate-load loop. Every batch
// re-evaluates the buckets it touched, so a late report produces a fresh
// conditions event for its (spot, hour) with the same key.
type Pipeline struct {
	extractor  BatchExtractor
	window     *Window
	aggregator Aggregator
	loader     BatchLoader
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	batchSize  int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, w *Window, a Aggregator, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:  e,
		window:     w,
		aggregator: a,
		loader:     l,
		logger:     logger,
		metrics:    metrics,
		batchSize:  batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has completed a batch, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	accepted, touched := p.ingest(ctx, rawBatch)
	events := p.aggregate(ctx, touched)

	if len(events) > 0 {
		if err := p.loader.LoadBatch(ctx, events); err != nil {
			p.logger.Error("load batch failed", "error", err, "batch_size", len(events))
			return p.backoffOrStop(ctx, backoff, maxBackoff)
		}
		p.metrics.ConditionsProduced.Add(float64(len(events)))
	}

	for _, raw := range accepted {
		p.commitOffset(ctx, raw)
	}

	if n := p.window.Evict(clock.Now()); n > 0 {
		p.logger.Debug("evicted buckets", "count", n)
	}
	p.metrics.OpenBuckets.Set(float64(p.window.Len()))
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// ingest decodes each message into the window. Malformed messages are logged,
// counted and committed so they are not redelivered. It returns the messages
// to commit after a successful load and the buckets that changed.
func (p *Pipeline) ingest(ctx context.Context, rawBatch []domain.RawEvent) ([]domain.RawEvent, []BucketKey) {
	accepted := make([]domain.RawEvent, 0, len(rawBatch))
	seen := make(map[BucketKey]bool)
	var touched []BucketKey

	for _, raw := range rawBatch {
		obs, err := DecodeObservation(raw)
		if err != nil {
			p.logger.Warn("decode failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.DecodeErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}

		accepted = append(accepted, raw)
		key, ok := p.window.Add(obs, clock.Now())
		if !ok {
			p.logger.Debug("observation past retention, ignoring",
				"spot_id", obs.SpotID, "source_id", obs.SourceID, "observed_at", obs.Timestamp)
			continue
		}
		if !seen[key] {
			seen[key] = true
			touched = append(touched, key)
		}
	}
	sortKeys(touched)
	return accepted, touched
}

// aggregate evaluates each touched bucket. Buckets without wave data are
// skipped until a report arrives.
func (p *Pipeline) aggregate(ctx context.Context, keys []BucketKey) []domain.ConditionsEvent {
	events := make([]domain.ConditionsEvent, 0, len(keys))
	for _, key := range keys {
		conds, err := p.aggregator.Aggregate(ctx, domain.AggregateRequest{
			SpotID:       key.SpotID,
			Bucket:       key.Bucket,
			AsOf:         key.End(),
			Observations: p.window.Observations(key),
		})
		switch {
		case errors.Is(err, domain.ErrNoData):
			p.logger.Debug("no data for bucket", "spot_id", key.SpotID, "bucket", key.Bucket, "error", err)
			continue
		case err != nil:
			p.logger.Warn("aggregate failed", "spot_id", key.SpotID, "bucket", key.Bucket, "error", err)
			continue
		}
		events = append(events, domain.ConditionsEvent{AggregatedConditions: conds, ProcessedAt: clock.Now().UTC()})
	}
	return events
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
