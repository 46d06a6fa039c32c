// Package metrics provides a Prometheus adapter for writectrl.Hooks,
// exposing the controller's vote counts, active delay rate, and sleep
// behavior as collectors.
package metrics

import (
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lsmkv/writectrl"
)

// collectors bundles the Prometheus vectors a single NewHooks call
// registers and closes over in its returned Hooks' callbacks.
type collectors struct {
	stopVotes       prometheus.Gauge
	delayVotes      prometheus.Gauge
	delayRate       prometheus.Gauge
	sleepUs         prometheus.Histogram
	sleepClampTotal prometheus.Counter
	bucketResets    prometheus.Counter
}

// NewHooks registers a set of collectors on reg and returns a
// [writectrl.Hooks] whose callbacks update them. Pass the result to
// [writectrl.WithHooks] when constructing a Controller.
func NewHooks(reg prometheus.Registerer) *writectrl.Hooks {
	c := &collectors{
		stopVotes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "writectrl_stop_votes",
			Help: "Number of outstanding stop votes.",
		}),
		delayVotes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "writectrl_delay_votes",
			Help: "Number of outstanding delay votes.",
		}),
		delayRate: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "writectrl_delay_rate_bytes_per_sec",
			Help: "Byte rate currently driving the token bucket.",
		}),
		sleepUs: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "writectrl_sleep_microseconds",
			Help:    "Sleep durations GetDelay has returned.",
			Buckets: prometheus.ExponentialBuckets(100, 4, 12),
		}),
		sleepClampTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "writectrl_sleep_clamped_total",
			Help: "Number of GetDelay calls whose computed sleep was clamped to MAX_SLEEP_US.",
		}),
		bucketResets: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "writectrl_bucket_resets_total",
			Help: "Number of times a new DelayToken reset the token bucket.",
		}),
	}

	return &writectrl.Hooks{
		OnStopVoteAdded:    func(uuid.UUID) { c.stopVotes.Inc() },
		OnStopVoteReleased: func(uuid.UUID) { c.stopVotes.Dec() },
		OnDelayVoteAdded: func(_ uuid.UUID, rateBytesPerSec uint64) {
			c.delayVotes.Inc()
			c.delayRate.Set(float64(rateBytesPerSec))
		},
		OnDelayVoteReleased: func(uuid.UUID) { c.delayVotes.Dec() },
		OnBucketReset: func(_, newRateBytesPerSec uint64) {
			c.bucketResets.Inc()
			c.delayRate.Set(float64(newRateBytesPerSec))
		},
		OnSleepComputed: func(_, sleepUs uint64, _ int64) {
			c.sleepUs.Observe(float64(sleepUs))
		},
		OnSleepClamped: func(uint64) { c.sleepClampTotal.Inc() },
	}
}
