package transmission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reconnects = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "seedstats",
	Subsystem: "transmission",
	Name:      "reconnects_total",
	Help:      "Connections torn down and redialed after a failed fetch.",
})
