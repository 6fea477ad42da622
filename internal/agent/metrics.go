package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seedstats",
		Subsystem: "agent",
		Name:      "ticks_total",
		Help:      "Collection ticks attempted per plugin.",
	}, []string{"plugin"})

	tickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "seedstats",
		Subsystem: "agent",
		Name:      "tick_duration_seconds",
		Help:      "Duration of collection ticks per plugin.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"plugin"})

	samplesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seedstats",
		Subsystem: "agent",
		Name:      "samples_emitted_total",
		Help:      "Samples handed to sinks per plugin.",
	}, []string{"plugin"})

	sinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seedstats",
		Subsystem: "agent",
		Name:      "sink_errors_total",
		Help:      "Failed sample submissions per sink.",
	}, []string{"sink"})
)
