package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
)

// ErrMalformed marks a source message that cannot become an observation.
var ErrMalformed = errors.New("malformed observation")

// ObservationMessage is the provider-neutral JSON written to the source topic
// by the provider collectors. A value is either a single reading ("value") or
// a range ("min" and "max").
type ObservationMessage struct {
	SpotID        string        `json:"spot_id"`
	SourceID      string        `json:"source_id"`
	ObservedAt    time.Time     `json:"observed_at"`
	Metric        domain.Metric `json:"metric"`
	Value         *float64      `json:"value,omitempty"`
	Min           *float64      `json:"min,omitempty"`
	Max           *float64      `json:"max,omitempty"`
	Unit          string        `json:"unit"`
	Period        float64       `json:"period_s,omitempty"`
	Direction     string        `json:"direction,omitempty"`
	DirectionDeg  *float64      `json:"direction_deg,omitempty"`
	Reliability   float64       `json:"reliability"`
	RefreshWindow string        `json:"refresh_window,omitempty"`
	SensorOffline bool          `json:"sensor_offline,omitempty"`
	Authoritative bool          `json:"authoritative,omitempty"`
}

// DecodeObservation parses a source message into a domain observation.
func DecodeObservation(raw domain.RawEvent) (domain.Observation, error) {
	var msg ObservationMessage
	if err := json.Unmarshal(raw.Value, &msg); err != nil {
		return domain.Observation{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return msg.Observation()
}

// Observation validates the message and converts it.
func (m ObservationMessage) Observation() (domain.Observation, error) {
	switch {
	case m.SpotID == "":
		return domain.Observation{}, fmt.Errorf("%w: spot_id is required", ErrMalformed)
	case m.SourceID == "":
		return domain.Observation{}, fmt.Errorf("%w: source_id is required", ErrMalformed)
	case m.ObservedAt.IsZero():
		return domain.Observation{}, fmt.Errorf("%w: observed_at is required", ErrMalformed)
	case !m.Metric.Valid():
		return domain.Observation{}, fmt.Errorf("%w: unknown metric %q", ErrMalformed, m.Metric)
	}

	var value domain.Range
	switch {
	case m.Value != nil:
		value = domain.Point(*m.Value)
	case m.Min != nil && m.Max != nil:
		value = domain.Range{Min: *m.Min, Max: *m.Max}
	default:
		return domain.Observation{}, fmt.Errorf("%w: value or min/max is required", ErrMalformed)
	}
	if value.Min > value.Max {
		return domain.Observation{}, fmt.Errorf("%w: min %g exceeds max %g", ErrMalformed, value.Min, value.Max)
	}

	direction, err := domain.ParseOctant(m.Direction)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if !direction.Known() && m.DirectionDeg != nil {
		direction = domain.OctantFromDegrees(*m.DirectionDeg)
	}

	var refresh time.Duration
	if m.RefreshWindow != "" {
		refresh, err = time.ParseDuration(m.RefreshWindow)
		if err != nil || refresh < 0 {
			return domain.Observation{}, fmt.Errorf("%w: invalid refresh_window %q", ErrMalformed, m.RefreshWindow)
		}
	}

	return domain.Observation{
		SpotID:        m.SpotID,
		SourceID:      m.SourceID,
		Timestamp:     m.ObservedAt.UTC(),
		Metric:        m.Metric,
		Value:         value,
		Unit:          m.Unit,
		Period:        m.Period,
		Direction:     direction,
		Reliability:   m.Reliability,
		RefreshWindow: refresh,
		SensorOffline: m.SensorOffline,
		Authoritative: m.Authoritative,
	}, nil
}

// NewObservationMessage is the inverse of ObservationMessage.Observation, used
// by fixture generators and tests.
func NewObservationMessage(o domain.Observation) ObservationMessage {
	m := ObservationMessage{
		SpotID:        o.SpotID,
		SourceID:      o.SourceID,
		ObservedAt:    o.Timestamp.UTC(),
		Metric:        o.Metric,
		Unit:          o.Unit,
		Period:        o.Period,
		Reliability:   o.Reliability,
		SensorOffline: o.SensorOffline,
		Authoritative: o.Authoritative,
	}
	if o.Value.Min == o.Value.Max {
		v := o.Value.Max
		m.Value = &v
	} else {
		lo, hi := o.Value.Min, o.Value.Max
		m.Min, m.Max = &lo, &hi
	}
	if o.Direction.Known() {
		m.Direction = o.Direction.String()
	}
	if o.RefreshWindow > 0 {
		m.RefreshWindow = o.RefreshWindow.String()
	}
	return m
}
