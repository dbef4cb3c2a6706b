// Package metrics: prometheus-метрики бота, отдаются на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_bot_signals_total",
			Help: "Processed webhook signals by type and result",
		},
		[]string{"type", "result"},
	)

	SignalsDeferred = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_bot_signals_deferred_total",
			Help: "Signals deferred because of a blackout window",
		},
	)

	VerifyAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_bot_verify_attempts",
			Help:    "Order state polls needed per verification",
			Buckets: []float64{1, 2, 3, 5, 8, 10, 15, 20},
		},
	)

	CatalogInstruments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "webhook_bot_catalog_instruments",
			Help: "Instruments in the current catalog snapshot",
		},
	)

	CatalogRefreshFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_bot_catalog_refresh_failures_total",
			Help: "Failed catalog refresh cycles",
		},
	)

	MarginAlerts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_bot_margin_alerts_total",
			Help: "Margin drift alerts sent",
		},
	)

	QueueLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "webhook_bot_queue_length",
			Help: "Webhooks waiting in the queue",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SignalsTotal,
		SignalsDeferred,
		VerifyAttempts,
		CatalogInstruments,
		CatalogRefreshFailures,
		MarginAlerts,
		QueueLength,
	)
}
