package sink

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/seedstats/seedstats/internal/metric"
)

// PrometheusSink exposes the most recent value of every submitted
// sample as a gauge on the process /metrics endpoint.
type PrometheusSink struct {
	samples *prometheus.GaugeVec
}

// NewPrometheusSink creates the sink and registers its gauge vector on
// the given registerer.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		samples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "seedstats",
			Name:      "sample",
			Help:      "Most recent value of each collected sample.",
		}, []string{"plugin", "type_instance"}),
	}
	reg.MustRegister(s.samples)
	return s
}

func (s *PrometheusSink) Name() string { return "prometheus" }

func (s *PrometheusSink) Submit(_ context.Context, sample metric.Sample) error {
	s.samples.WithLabelValues(sample.Plugin, sample.TypeInstance).Set(sample.Value)
	return nil
}

var _ metric.Sink = (*PrometheusSink)(nil)
