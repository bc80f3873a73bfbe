// Package metrics provides Prometheus counters for the authenticated transport.
package metrics

import (
	"github.com/gravitational/trace"
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

const namespace = "authclient"

// Metrics groups the transport counters. A nil *Metrics records nothing.
type Metrics struct {
	// RefreshTotal counts refresh network calls by result.
	RefreshTotal *prometheus.CounterVec
	// RetryTotal counts requests replayed after a refresh.
	RetryTotal prometheus.Counter
	// TeardownTotal counts session teardowns by reason.
	TeardownTotal *prometheus.CounterVec
}

// New creates the counters and registers them on registerer when it is not nil.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	ret := &Metrics{
		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_total",
				Help:      "Total number of session refresh calls",
			},
			[]string{"result"},
		),
		RetryTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retry_total",
				Help:      "Total number of requests replayed with a refreshed credential",
			},
		),
		TeardownTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "teardown_total",
				Help:      "Total number of session teardowns",
			},
			[]string{"reason"},
		),
	}
	if registerer == nil {
		return ret, nil
	}
	for _, collector := range []prometheus.Collector{ret.RefreshTotal, ret.RetryTotal, ret.TeardownTotal} {
		if err := registerer.Register(collector); err != nil {
			return nil, trace.Wrap(err)
		}
	}
	return ret, nil
}

func (m *Metrics) Refreshed(err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.RefreshTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Retried() {
	if m == nil {
		return
	}
	m.RetryTotal.Inc()
}

func (m *Metrics) TornDown(reason string) {
	if m == nil {
		return
	}
	m.TeardownTotal.WithLabelValues(reason).Inc()
}
