// Package metric defines the sample shape exchanged between collector
// plugins and sinks.
package metric

import "context"

// Gauge is the value type for point-in-time readings. It is the only
// value type emitted today.
const Gauge = "gauge"

// Sample is one emitted metric data point. Samples are produced by
// collectors on each tick and handed to sinks; they are never stored.
type Sample struct {
	Plugin       string
	TypeInstance string
	ValueType    string
	Value        float64
}

// Sink accepts discrete named samples. Implementations must tolerate
// being called once per sample per tick and should not block for long;
// the agent loop runs sinks synchronously.
type Sink interface {
	// Name returns the sink's identifier for logging and metrics.
	Name() string

	// Submit delivers a single sample.
	Submit(ctx context.Context, s Sample) error
}
