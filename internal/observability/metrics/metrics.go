// Package metrics exposes prometheus instruments for the credit ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

// Metrics holds application-level instruments.
type Metrics struct {
	registry *prometheus.Registry

	minutesMinted   prometheus.Counter
	minutesConsumed prometheus.Counter
	minutesExpired  prometheus.Counter
	lotsExpired     prometheus.Counter
	consumeFailures *prometheus.CounterVec
	sweepDuration   prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		minutesMinted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minutemarket_minutes_minted_total",
			Help: "Minutes credited via lot minting.",
		}),
		minutesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minutemarket_minutes_consumed_total",
			Help: "Minutes debited via consumption allocation.",
		}),
		minutesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minutemarket_minutes_expired_total",
			Help: "Minutes forfeited by the expiration sweeper.",
		}),
		lotsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "minutemarket_lots_expired_total",
			Help: "Lots transitioned to expired.",
		}),
		consumeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minutemarket_consume_failures_total",
			Help: "Rejected consumption requests by reason.",
		}, []string{"reason"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "minutemarket_sweep_duration_seconds",
			Help:    "Duration of one expiration sweep.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minutemarket_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minutemarket_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	registry.MustRegister(
		m.minutesMinted,
		m.minutesConsumed,
		m.minutesExpired,
		m.lotsExpired,
		m.consumeFailures,
		m.sweepDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordMintedMinutes(minutes int64) {
	m.minutesMinted.Add(float64(minutes))
}

func (m *Metrics) RecordConsumedMinutes(minutes int64) {
	m.minutesConsumed.Add(float64(minutes))
}

func (m *Metrics) RecordExpiredMinutes(lots int, minutes int64) {
	m.lotsExpired.Add(float64(lots))
	m.minutesExpired.Add(float64(minutes))
}

func (m *Metrics) IncConsumeFailure(reason string) {
	m.consumeFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveSweepDuration(d time.Duration) {
	m.sweepDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTPRequest(route, method, status string, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Module wires the instruments.
var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
