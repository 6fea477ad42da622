// Package agent drives registered collector plugins on a fixed interval
// and fans their samples out to the configured sinks.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/seedstats/seedstats/internal/metric"
	"github.com/seedstats/seedstats/internal/plugin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Agent is the tick scheduler. Collectors run sequentially within a
// tick, so each collector sees at most one in-flight Collect call.
type Agent struct {
	registry   *plugin.Registry
	sinks      []metric.Sink
	interval   time.Duration
	instanceID string
	logger     *zap.Logger

	// stop is created in New and closed by Stop, so Stop works from any
	// goroutine and regardless of whether Run has started yet.
	stop     chan struct{}
	stopOnce sync.Once

	// Both limiters keep a flapping daemon or broker from flooding the
	// log at every tick.
	unreachableLog *rate.Limiter
	sinkErrLog     *rate.Limiter
}

// New creates an agent collecting at the given interval.
func New(registry *plugin.Registry, sinks []metric.Sink, interval time.Duration, instanceID string, logger *zap.Logger) *Agent {
	return &Agent{
		registry:       registry,
		sinks:          sinks,
		interval:       interval,
		instanceID:     instanceID,
		logger:         logger,
		stop:           make(chan struct{}),
		unreachableLog: rate.NewLimiter(rate.Every(time.Minute), 1),
		sinkErrLog:     rate.NewLimiter(rate.Every(time.Minute), 1),
	}
}

// InstanceID returns the identifier distinguishing this process in
// sample pipelines and logs.
func (a *Agent) InstanceID() string {
	return a.instanceID
}

// Run blocks until the context is cancelled, performing one collection
// pass per interval.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent running",
		zap.String("instance_id", a.instanceID),
		zap.Duration("interval", a.interval),
		zap.Int("collectors", len(a.registry.Collectors())),
		zap.Int("sinks", len(a.sinks)),
	)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("agent shutting down")
			return nil
		case <-a.stop:
			a.logger.Info("agent shutting down")
			return nil
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

// Stop signals the agent loop to shut down. Effective even if Run has
// not been called yet, and safe to call more than once.
func (a *Agent) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// tick runs every collector once and submits the samples to all sinks.
// A collector failure is logged and never stops the other collectors or
// subsequent ticks.
func (a *Agent) tick(ctx context.Context) {
	for _, p := range a.registry.Collectors() {
		c := p.(plugin.Collector)

		start := time.Now()
		samples, err := c.Collect(ctx)
		tickDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
		ticksTotal.WithLabelValues(p.Name()).Inc()

		if err != nil {
			a.logger.Error("collection failed", zap.String("plugin", p.Name()), zap.Error(err))
			continue
		}
		if len(samples) == 0 {
			if a.unreachableLog.Allow() {
				a.logger.Warn("no samples collected, target may be unreachable",
					zap.String("plugin", p.Name()))
			}
			continue
		}

		samplesEmitted.WithLabelValues(p.Name()).Add(float64(len(samples)))
		for _, s := range samples {
			for _, snk := range a.sinks {
				if err := snk.Submit(ctx, s); err != nil {
					sinkErrors.WithLabelValues(snk.Name()).Inc()
					if a.sinkErrLog.Allow() {
						a.logger.Warn("sink submit failed",
							zap.String("sink", snk.Name()), zap.Error(err))
					}
				}
			}
		}
	}
}
