package sink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SinkWrites tracks dataset publications by result ("ok", "error")
	SinkWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horizons_sink_writes_total",
			Help: "Total number of dataset publications to Redis",
		},
		[]string{"result"},
	)

	// SinkBytes tracks the size of the last published dataset
	SinkBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "horizons_sink_bytes",
			Help: "Size in bytes of the last dataset published to Redis",
		},
	)
)
