package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoData reports that no usable observation exists for a required metric.
	// Callers render a "no data" state; the engine never fabricates a value.
	ErrNoData = errors.New("no data available")

	// ErrInvalidInput reports a programming error such as mixing spots or
	// metrics in one blend call.
	ErrInvalidInput = errors.New("invalid input")
)

// NoDataError carries the metric that had no usable observation and the
// sources that were excluded on the way.
type NoDataError struct {
	SpotID  string
	Metric  Metric
	Dropped []DroppedSource
}

func (e *NoDataError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: spot %q metric %s", ErrNoData, e.SpotID, e.Metric)
	if len(e.Dropped) > 0 {
		fmt.Fprintf(&b, " (%d sources dropped)", len(e.Dropped))
	}
	return b.String()
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

// InvalidInputError describes why an input set was rejected.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

func invalidInput(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}
