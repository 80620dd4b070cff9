// Package metrics exposes Prometheus collectors for arena traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arena"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	operations *prometheus.CounterVec
	opponents  prometheus.Histogram
}

// New registers the arena collectors on reg. fighters is sampled on every
// scrape to report the registry size.
func New(reg prometheus.Registerer, fighters func() int) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Registry operations by name and outcome.",
			},
			[]string{"op", "result"},
		),
		opponents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "matchmake_opponents",
			Help:      "Number of opponents drawn per successful matchmake.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 31},
		}),
	}

	reg.MustRegister(m.operations, m.opponents)
	if fighters != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fighters",
				Help:      "Fighters currently registered.",
			},
			func() float64 { return float64(fighters()) },
		))
	}
	return m
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Op counts one operation; result is usually "ok", "not_found" or "error".
func (m *Metrics) Op(op, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Opponents(n int) {
	if m == nil {
		return
	}
	m.opponents.Observe(float64(n))
}
