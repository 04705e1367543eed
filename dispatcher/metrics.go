package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics backs the get_performance_metrics / reset_performance_metrics
// built-in methods with real prometheus.Counter instruments instead of a
// hand-rolled stats struct, registered in a private registry so multiple
// Dispatchers in the same process don't collide on prometheus's default one.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      prometheus.Counter
	requestsCompleted  prometheus.Counter
	requestsDenied     prometheus.Counter
}

// NewMetrics creates a Metrics instance with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_requests_total",
			Help: "Total JSON-RPC requests received.",
		}),
		requestsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_requests_completed_total",
			Help: "Requests that produced a response.",
		}),
		requestsDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_requests_denied_total",
			Help: "Requests denied by auth or rate limiting.",
		}),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestsCompleted, m.requestsDenied)
	return m
}

// Registry exposes the underlying prometheus.Registry for HTTP /metrics wiring.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Snapshot returns the current counter values for the get_performance_metrics method.
func (m *Metrics) Snapshot() map[string]float64 {
	return map[string]float64{
		"requests_total":     counterValue(m.requestsTotal),
		"requests_completed": counterValue(m.requestsCompleted),
		"requests_denied":    counterValue(m.requestsDenied),
	}
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	_ = c.Write(&m)
	return m.GetCounter().GetValue()
}

// Reset recreates every counter and re-registers them, giving
// reset_performance_metrics a true zero baseline (prometheus counters are
// monotonic and have no public reset method).
func (m *Metrics) Reset() {
	m.registry = prometheus.NewRegistry()
	m.requestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatcher_requests_total",
		Help: "Total JSON-RPC requests received.",
	})
	m.requestsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatcher_requests_completed_total",
		Help: "Requests that produced a response.",
	})
	m.requestsDenied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatcher_requests_denied_total",
		Help: "Requests denied by auth or rate limiting.",
	})
	m.registry.MustRegister(m.requestsTotal, m.requestsCompleted, m.requestsDenied)
}
