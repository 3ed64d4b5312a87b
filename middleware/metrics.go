package middleware

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/comalice/storex"
)

// Metrics holds the Prometheus collectors shared by every instrumented store.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the dispatch collectors with reg, reusing collectors
// that are already registered. A nil reg uses prometheus.DefaultRegisterer.
//
//	storex_dispatch_total{store,type,outcome}
//	storex_dispatch_duration_seconds{store,type}
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storex_dispatch_total",
		Help: "Messages dispatched, by store, action type and outcome.",
	}, []string{"store", "type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storex_dispatch_duration_seconds",
		Help:    "Time spent in the dispatch chain below the metrics middleware.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"store", "type"})

	var err error
	if dispatches, err = register(reg, dispatches); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{dispatches: dispatches, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Instrument returns middleware recording every message that reaches it
// under the given store label.
func Instrument[S any](m *Metrics, store string) storex.Middleware[S] {
	return func(api storex.API[S]) func(next storex.Dispatcher) storex.Dispatcher {
		return func(next storex.Dispatcher) storex.Dispatcher {
			return func(msg any) (any, error) {
				label := metricType(msg)
				start := time.Now()
				result, err := next(msg)
				m.duration.WithLabelValues(store, label).Observe(time.Since(start).Seconds())
				m.dispatches.WithLabelValues(store, label, outcome(err)).Inc()
				return result, err
			}
		}
	}
}

func metricType(msg any) string {
	if a, ok := storex.AsAction(msg); ok {
		return a.Type
	}
	return "non-action"
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrGuardRejected):
		return "rejected"
	case errors.Is(err, storex.ErrReducerInFlight):
		return "in_flight"
	default:
		return "error"
	}
}
