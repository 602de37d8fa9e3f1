package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// History write results.
const (
	writeResultOK      = "ok"
	writeResultFailed  = "failed"
	writeResultDropped = "dropped"
)

var (
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_searches_total",
			Help: "Searches executed successfully, by kind",
		},
		[]string{"kind"},
	)

	historyWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_history_writes_total",
			Help: "Search history write-backs, by result (ok, failed, dropped)",
		},
		[]string{"result"},
	)

	lookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_lookup_duration_seconds",
			Help:    "Duration of catalog and history lookups in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"lookup"},
	)
)

func observeLookup(lookup string, start time.Time) {
	lookupDuration.WithLabelValues(lookup).Observe(time.Since(start).Seconds())
}
