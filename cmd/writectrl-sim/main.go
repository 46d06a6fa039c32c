// Command writectrl-sim drives a writectrl.Controller with simulated
// writers and stress producers against real wall time, for manual and load
// testing outside the deterministic property test suite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"golang.org/x/time/rate"

	"github.com/lsmkv/writectrl"
	"github.com/lsmkv/writectrl/sim"
)

func main() {
	var (
		duration       = flag.Duration("duration", 5*time.Second, "how long to run the simulation")
		writers        = flag.Int("writers", 4, "number of simulated foreground writers")
		writeSize      = flag.Uint64("write-size", 64*1024, "bytes per simulated write")
		arrivalRate    = flag.Float64("arrival-rate", 200, "offered write attempts per second, per writer")
		configuredRate = flag.Uint64("rate", 8*1024*1024, "controller's configured delay rate, bytes/sec")
		stressRate     = flag.Uint64("stress-rate", 1*1024*1024, "delay rate a simulated stress producer mints, bytes/sec")
		stressActive   = flag.Duration("stress-active", time.Second, "how long the simulated stress producer holds its vote")
		stressIdle     = flag.Duration("stress-idle", time.Second, "how long the simulated stress producer stays idle between votes")
		withStress     = flag.Bool("with-stress", true, "run a simulated delay-vote stress producer alongside the writers")
	)
	flag.Parse()

	ctrl := writectrl.NewController(
		writectrl.WithName("writectrl-sim"),
		writectrl.WithConfiguredRate(*configuredRate),
		writectrl.WithHooks(&writectrl.Hooks{
			OnBucketReset: func(previousRateBytesPerSec, newRateBytesPerSec uint64) {
				log.Printf("bucket reset: %d -> %d bytes/sec", previousRateBytesPerSec, newRateBytesPerSec)
			},
			OnSleepClamped: func(neededUs uint64) {
				log.Printf("sleep clamped (needed %dus)", neededUs)
			},
		}),
	)

	cfg := sim.SimConfig{
		Controller:        ctrl,
		Duration:          *duration,
		WriterCount:       *writers,
		WriteSizeBytes:    *writeSize,
		WriterArrivalRate: rate.Limit(*arrivalRate),
	}

	if *withStress {
		cfg.StressProducers = []sim.StressSchedule{
			{
				Kind:            sim.DelayVote,
				RateBytesPerSec: *stressRate,
				Active:          *stressActive,
				Idle:            *stressIdle,
			},
		}
	}

	// Establish a baseline delay vote at the configured rate so the
	// writers are paced even before (or without) any stress producer
	// voting. Once a stress producer mints its own DelayToken, that token's
	// rate drives the bucket; releasing it does not restore the baseline
	// rate, since only minting a DelayToken resets the bucket.
	baseline, err := ctrl.NewDelayToken(*configuredRate)
	if err != nil {
		log.Fatalf("NewDelayToken: %v", err)
	}
	defer baseline.Release()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	report, err := sim.Run(ctx, cfg)
	if err != nil {
		log.Fatalf("sim.Run: %v", err)
	}

	fmt.Printf("duration:            %s\n", report.Duration)
	fmt.Printf("writers:             %d\n", report.WriterCount)
	fmt.Printf("total writes:        %d\n", report.TotalWrites)
	fmt.Printf("total bytes written: %d\n", report.TotalBytesWritten)
	fmt.Printf("achieved bytes/sec:  %.0f\n", report.AchievedBytesPerSec)
	fmt.Printf("configured rate:     %d bytes/sec\n", report.ConfiguredRateBytesPerSec)
}
