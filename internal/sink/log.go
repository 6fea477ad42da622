// Package sink provides the sample sinks fed by the agent loop.
package sink

import (
	"context"

	"github.com/seedstats/seedstats/internal/metric"
	"go.uber.org/zap"
)

// LogSink writes every sample to the logger at debug level. Mostly
// useful during setup, before a real pipeline is wired.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink backed by the given logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Submit(_ context.Context, sample metric.Sample) error {
	s.logger.Debug("sample",
		zap.String("plugin", sample.Plugin),
		zap.String("type_instance", sample.TypeInstance),
		zap.String("value_type", sample.ValueType),
		zap.Float64("value", sample.Value),
	)
	return nil
}

var _ metric.Sink = (*LogSink)(nil)
