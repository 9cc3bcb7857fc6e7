package metrics

import (
	"time"

	"github.com/arnavshah/assign-api-go/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records assignment request outcomes
type Metrics struct {
	Requests    *prometheus.CounterVec
	SolveTime   *prometheus.HistogramVec
	Fulfillment *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assign_requests_total",
			Help: "Assignment requests by method and outcome status.",
		}, []string{"method", "status"}),
		SolveTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assign_solve_seconds",
			Help:    "Time spent building and solving an assignment problem.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"method"}),
		Fulfillment: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assign_last_fulfillment_rate",
			Help: "Fulfillment rate of the most recent solution per method.",
		}, []string{"method"}),
	}
	reg.MustRegister(m.Requests, m.SolveTime, m.Fulfillment)
	return m
}

// ObserveSolved records a successful solve
func (m *Metrics) ObserveSolved(method string, status models.Status, fulfillment float64, elapsed time.Duration) {
	m.Requests.WithLabelValues(method, string(status)).Inc()
	m.SolveTime.WithLabelValues(method).Observe(elapsed.Seconds())
	m.Fulfillment.WithLabelValues(method).Set(fulfillment)
}

// ObserveFailed records a request that ended in an error of the given kind
func (m *Metrics) ObserveFailed(method, kind string) {
	m.Requests.WithLabelValues(method, kind).Inc()
}
