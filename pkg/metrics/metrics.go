package metrics

import (
	"context"
	"time"
)

// Sample is a single timestamped metric value
type Sample struct {
	Timestamp time.Time
	Value     float64
}

// Provider is the metrics backend consumed by the SLO evaluator.
// It must not be assumed synchronous-fast, callers apply their own timeout.
type Provider interface {
	// QueryInstant evaluates the query at the current instant.
	// found is false when the query yielded no sample.
	QueryInstant(ctx context.Context, query string) (value float64, found bool, err error)

	// QueryRange evaluates the query over [start, end] at the given step
	QueryRange(ctx context.Context, query string, start, end time.Time, step time.Duration) ([]Sample, error)
}
