// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpool",
		Name:      "rpc_requests_total",
		Help:      "RPC calls by procedure and Connect code.",
	}, []string{"procedure", "code"})

	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "carpool",
		Name:      "rpc_duration_seconds",
		Help:      "RPC latency by procedure.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure"})

	SnapshotSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpool",
		Name:      "snapshot_saves_total",
		Help:      "Snapshot saves by backend and result.",
	}, []string{"backend", "result"})

	Legs = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "carpool",
		Name:      "trip_legs",
		Help:      "Trip legs currently in the ledger.",
	})

	Backups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpool",
		Name:      "backups_total",
		Help:      "Scheduled backups by result.",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSave records the outcome of a snapshot save.
func ObserveSave(backend string, err error, legs int) {
	if err != nil {
		SnapshotSaves.WithLabelValues(backend, "error").Inc()
		return
	}
	SnapshotSaves.WithLabelValues(backend, "ok").Inc()
	Legs.Set(float64(legs))
}
