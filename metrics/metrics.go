// Package metrics defines prometheus metric types for the measurement
// engine: promauto-registered counters and histograms, grouped by what
// they observe.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsTotal counts sessions accepted by the dispatcher, labeled by
	// socket type.
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mbm_sessions_total",
			Help: "Count of sessions accepted by the dispatcher.",
		},
		[]string{"socket_type"})

	// VerdictsTotal counts sessions by final verdict.
	VerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mbm_verdicts_total",
			Help: "Count of sessions by final verdict.",
		},
		[]string{"result"})

	// PacingSleepMissHistogram tracks how far, in nanoseconds, a paced send
	// loop overshot its scheduled wake time.
	PacingSleepMissHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "mbm_pacing_sleep_miss_ns",
			Help: "Distribution of pacing loop sleep-miss magnitude, in nanoseconds.",
			Buckets: []float64{
				1000, 2500, 5000, 10000, 25000, 50000, 100000, 250000, 500000,
				1000000, 2500000, 5000000, 10000000,
			},
		})

	// SamplerAvailable counts TCP sessions by whether the TCP sampler was
	// usable (available="true") or the session degraded to UDP-style loss
	// accounting (available="false").
	SamplerAvailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mbm_sampler_available_total",
			Help: "Count of sessions by whether the TCP sampler was available.",
		},
		[]string{"available"})

	// PortPoolInUse is a gauge of currently-assigned data ports.
	PortPoolInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mbm_port_pool_in_use",
			Help: "Number of data ports currently assigned to a session.",
		})

	// SessionDuration tracks wall-clock session length, labeled by verdict.
	SessionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mbm_session_duration_seconds",
			Help:    "Session wall-clock duration, from control-socket accept to verdict.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"result"})
)
