package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ConditionsEvent is an aggregation stamped with the time it was produced.
// It is the payload written to the sink topic.
type ConditionsEvent struct {
	AggregatedConditions
	ProcessedAt time.Time `json:"processed_at"`
}

// Key identifies the (spot, bucket) the conditions describe. Re-evaluating a
// bucket produces the same key so compacted topics keep only the latest.
func (e ConditionsEvent) Key() string {
	return e.SpotID + "|" + e.Bucket.UTC().Format(time.RFC3339)
}
