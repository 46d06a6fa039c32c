// Package hclogobserver provides an hclog-backed adapter for
// writectrl.Hooks, logging vote and bucket lifecycle events at a level
// appropriate to how much attention each deserves.
package hclogobserver

import (
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/lsmkv/writectrl"
)

// NewHooks returns a [writectrl.Hooks] that logs each vote, bucket-reset,
// and clamp event on logger. New stop votes and clamped sleeps log at Warn —
// a stop vote means writes are being refused, and a clamp means a caller
// is about to be told to come back for more. Stop vote releases log at
// Info, every computed sleep logs at Trace, and delay votes and bucket
// resets log at Debug, since they are the controller's normal operating
// mode.
func NewHooks(logger hclog.Logger) *writectrl.Hooks {
	return &writectrl.Hooks{
		OnStopVoteAdded: func(id uuid.UUID) {
			logger.Warn("stop vote added", "id", id)
		},
		OnStopVoteReleased: func(id uuid.UUID) {
			logger.Info("stop vote released", "id", id)
		},
		OnDelayVoteAdded: func(id uuid.UUID, rateBytesPerSec uint64) {
			logger.Debug("delay vote added", "id", id, "rate_bytes_per_sec", rateBytesPerSec)
		},
		OnDelayVoteReleased: func(id uuid.UUID) {
			logger.Debug("delay vote released", "id", id)
		},
		OnBucketReset: func(previousRateBytesPerSec, newRateBytesPerSec uint64) {
			logger.Debug(
				"bucket reset",
				"previous_rate_bytes_per_sec", previousRateBytesPerSec,
				"new_rate_bytes_per_sec", newRateBytesPerSec,
			)
		},
		OnSleepComputed: func(numBytes, sleepUs uint64, balanceBytes int64) {
			logger.Trace(
				"sleep computed",
				"num_bytes", numBytes,
				"sleep_us", sleepUs,
				"balance_bytes", balanceBytes,
			)
		},
		OnSleepClamped: func(neededUs uint64) {
			logger.Warn("sleep clamped to max", "needed_us", neededUs)
		},
	}
}
