// Package metrics counts exchanges with the switch for the Prometheus
// textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Retry reasons.
const (
	ReasonEOF     = "eof"
	ReasonTimeout = "timeout"
)

// NewRegistry returns an empty registry. Process and Go collectors are left
// out since the tool exits after a single exchange.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// Exchange holds the counters updated by one run. A nil *Exchange is valid
// and records nothing.
type Exchange struct {
	Attempts  prometheus.Counter
	Retries   *prometheus.CounterVec // labels: reason
	Results   *prometheus.CounterVec // labels: result
	BytesRead prometheus.Counter
	Input     prometheus.Gauge
}

// NewExchange registers the exchange metrics with reg.
func NewExchange(reg prometheus.Registerer) *Exchange {
	m := &Exchange{
		Attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hdmiswitch_query_attempts_total",
			Help: "Status query attempts, including retries.",
		}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hdmiswitch_query_retries_total",
			Help: "Status query retries by reason.",
		}, []string{"reason"}),
		Results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hdmiswitch_exchange_results_total",
			Help: "Terminal outcome of a run.",
		}, []string{"result"}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hdmiswitch_bytes_read_total",
			Help: "Bytes received from the switch.",
		}),
		Input: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hdmiswitch_active_input",
			Help: "Input reported by the last successful query.",
		}),
	}
	reg.MustRegister(m.Attempts, m.Retries, m.Results, m.BytesRead, m.Input)
	return m
}

func (m *Exchange) Attempt() {
	if m != nil {
		m.Attempts.Inc()
	}
}

func (m *Exchange) Retry(reason string) {
	if m != nil {
		m.Retries.WithLabelValues(reason).Inc()
	}
}

func (m *Exchange) Read(n int) {
	if m != nil {
		m.BytesRead.Add(float64(n))
	}
}

// Result records the outcome of the run, and the input on success.
func (m *Exchange) Result(result string, input int) {
	if m == nil {
		return
	}
	m.Results.WithLabelValues(result).Inc()
	if result == "ok" {
		m.Input.Set(float64(input))
	}
}

// WriteTextfile writes everything gathered by g to path atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
