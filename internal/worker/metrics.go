package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skreg_vetting_jobs_total",
			Help: "Total vetting jobs by terminal status",
		},
		[]string{"status"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skreg_vetting_stage_duration_seconds",
			Help:    "Vetting stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	claimsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skreg_vetting_claims_skipped_total",
			Help: "Job claims skipped because another worker held the lock",
		},
	)

	recoveredJobs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skreg_vetting_recovered_jobs_total",
			Help: "Stale pending jobs re-enqueued at startup",
		},
	)
)
