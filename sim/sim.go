// Package sim drives a writectrl.Controller end to end with simulated
// foreground writers and stress-signal producers, for manual and load
// testing. The storage engine side of the system is explicitly out of
// scope for writectrl itself (spec.md §1); sim stands in for it with
// schedule-driven goroutines rather than any real compaction heuristic.
package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/lsmkv/writectrl"
)

// VoteKind distinguishes the two kinds of vote a StressSchedule mints.
type VoteKind int

const (
	// DelayVote mints DelayTokens at RateBytesPerSec.
	DelayVote VoteKind = iota
	// StopVote mints StopTokens.
	StopVote
)

// StressSchedule describes one simulated stress-signal producer: it
// alternates between holding a vote for Active and holding none for Idle,
// forever, until the simulation's context is cancelled.
type StressSchedule struct {
	Kind            VoteKind
	RateBytesPerSec uint64 // only meaningful for DelayVote
	Active          time.Duration
	Idle            time.Duration
}

// SimConfig configures one simulation run.
type SimConfig struct {
	// Controller is the writectrl.Controller under test.
	Controller *writectrl.Controller
	// Clock supplies time to GetDelay and the writers' sleeps. Defaults to
	// writectrl.RealClock{} if nil, so the simulation runs against real
	// wall time — the deterministic property tests already cover the
	// synthetic-clock case.
	Clock writectrl.Clock
	// Duration bounds how long the simulation runs.
	Duration time.Duration
	// WriterCount is the number of concurrent simulated writer goroutines.
	WriterCount int
	// WriteSizeBytes is the size of each simulated write.
	WriteSizeBytes uint64
	// WriterArrivalRate paces each writer's write attempts via a
	// golang.org/x/time/rate.Limiter, independent of anything the
	// controller itself is doing — this is the offered load, not the
	// admitted rate.
	WriterArrivalRate rate.Limit
	// StressProducers are the simulated stress-signal producers run
	// alongside the writers.
	StressProducers []StressSchedule
}

// WriterStat reports one simulated writer's contribution to the run,
// labeled by a uuid so concurrent writers can be told apart in logs.
type WriterStat struct {
	ID     uuid.UUID
	Writes uint64
	Bytes  uint64
}

// SimReport summarizes one Run.
type SimReport struct {
	Duration                  time.Duration
	WriterCount               int
	TotalWrites               uint64
	TotalBytesWritten         uint64
	AchievedBytesPerSec       float64
	ConfiguredRateBytesPerSec uint64
	Writers                   []WriterStat
}

func microseconds(us uint64) time.Duration {
	return time.Duration(us) * time.Microsecond
}

// Run starts cfg.WriterCount writer goroutines and one goroutine per
// cfg.StressProducers entry, all driving cfg.Controller concurrently, for
// cfg.Duration. It blocks until every goroutine has stopped and returns an
// aggregate report — an end-to-end complement to the deterministic
// property tests, exercising property P2 (achieved rate tracks the
// configured one) under real goroutine scheduling.
func Run(ctx context.Context, cfg SimConfig) (SimReport, error) {
	clk := cfg.Clock
	if clk == nil {
		clk = writectrl.RealClock{}
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	stats := make([]*WriterStat, cfg.WriterCount)
	var wg sync.WaitGroup

	for _, sched := range cfg.StressProducers {
		wg.Add(1)
		go runStressProducer(runCtx, &wg, cfg.Controller, sched)
	}

	for i := 0; i < cfg.WriterCount; i++ {
		stat := &WriterStat{ID: uuid.New()}
		stats[i] = stat

		wg.Add(1)
		go runWriter(runCtx, &wg, cfg.Controller, clk, cfg.WriterArrivalRate, cfg.WriteSizeBytes, stat)
	}

	start := time.Now()
	wg.Wait()
	elapsed := time.Since(start)

	report := SimReport{
		Duration:    elapsed,
		WriterCount: cfg.WriterCount,
		Writers:     make([]WriterStat, cfg.WriterCount),
	}
	for i, stat := range stats {
		report.Writers[i] = *stat
		report.TotalWrites += stat.Writes
		report.TotalBytesWritten += stat.Bytes
	}
	report.ConfiguredRateBytesPerSec = cfg.Controller.DelayedWriteRate()
	if elapsed > 0 {
		report.AchievedBytesPerSec = float64(report.TotalBytesWritten) / elapsed.Seconds()
	}

	return report, nil
}

// runWriter issues GetDelay-paced writes at the offered arrival rate until
// ctx is done. A stopped controller makes the writer back off and retry
// rather than write, matching the contract that IsStopped must be checked
// separately from GetDelay (spec.md §7).
func runWriter(
	ctx context.Context,
	wg *sync.WaitGroup,
	c *writectrl.Controller,
	clk writectrl.Clock,
	arrivalRate rate.Limit,
	writeSizeBytes uint64,
	stat *WriterStat,
) {
	defer wg.Done()

	limiter := rate.NewLimiter(arrivalRate, 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		if c.IsStopped() {
			continue
		}

		if sleepUs := c.GetDelay(clk, writeSizeBytes); sleepUs > 0 {
			timer := clk.NewTimer(microseconds(sleepUs))
			select {
			case <-timer.C():
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}

		atomic.AddUint64(&stat.Writes, 1)
		atomic.AddUint64(&stat.Bytes, writeSizeBytes)
	}
}

// runStressProducer alternates between holding a vote for sched.Active and
// holding none for sched.Idle until ctx is done.
func runStressProducer(ctx context.Context, wg *sync.WaitGroup, c *writectrl.Controller, sched StressSchedule) {
	defer wg.Done()

	for {
		var release func()

		switch sched.Kind {
		case StopVote:
			tok := c.NewStopToken()
			release = tok.Release
		default:
			tok, err := c.NewDelayToken(sched.RateBytesPerSec)
			if err != nil {
				return
			}
			release = tok.Release
		}

		if !sleepOrDone(ctx, sched.Active) {
			release()
			return
		}
		release()

		if !sleepOrDone(ctx, sched.Idle) {
			return
		}
	}
}

// sleepOrDone waits for d or ctx cancellation, reporting which happened.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
