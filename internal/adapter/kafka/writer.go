package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/surf-conditions-etl/internal/config"
	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/couchcryptid/surf-conditions-etl/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

// ErrSinkUnavailable is returned while the circuit breaker is open.
var ErrSinkUnavailable = errors.New("conditions sink unavailable")

// messageWriter is the subset of kafkago.Writer the adapter uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// BreakerSettings configures the circuit breaker around the producer.
type BreakerSettings struct {
	MaxFailures uint32        // consecutive failures that open the breaker
	OpenTimeout time.Duration // how long the breaker stays open before probing
}

// Writer produces conditions events to a Kafka topic behind a circuit
// breaker, so a dead broker fails fast instead of stalling every batch.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	settings := BreakerSettings{MaxFailures: cfg.BreakerMaxFailures, OpenTimeout: cfg.BreakerOpenTimeout}
	return newWriter(w, settings, logger, metrics)
}

func newWriter(mw messageWriter, settings BreakerSettings, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	maxFailures := settings.MaxFailures
	if maxFailures == 0 {
		maxFailures = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-sink",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.Set(float64(to))
		},
	})
	return &Writer{writer: mw, breaker: cb, logger: logger}
}

// LoadBatch serializes and publishes conditions events to the sink topic in a
// single WriteMessages call. Events are keyed by spot and bucket so a late
// re-evaluation lands on the same partition as the first.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.ConditionsEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	_, err := w.breaker.Execute(func() (interface{}, error) {
		return nil, w.writer.WriteMessages(ctx, msgs...)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
	}
	return err
}

// State reports the breaker state for diagnostics.
func (w *Writer) State() gobreaker.State {
	return w.breaker.State()
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ConditionsEvent into a Kafka message.
func serializeToMessage(event domain.ConditionsEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize conditions event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "likelihood", Value: []byte(event.SurfLikelihood.String())},
			{Key: "processed_at", Value: []byte(event.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
