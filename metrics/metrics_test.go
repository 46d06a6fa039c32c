package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lsmkv/writectrl"
)

func gaugeOf(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	mf, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, f := range mf {
		if f.GetName() == name {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}

	t.Fatalf("metric %q not registered", name)
	return 0
}

func counterOf(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	mf, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, f := range mf {
		if f.GetName() == name {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}

	t.Fatalf("metric %q not registered", name)
	return 0
}

func TestNewHooks_StopVoteGaugeTracksLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	ctrl := writectrl.NewController(writectrl.WithHooks(NewHooks(reg)))

	tok := ctrl.NewStopToken()
	if got := gaugeOf(t, reg, "writectrl_stop_votes"); got != 1 {
		t.Fatalf("writectrl_stop_votes = %v, want 1", got)
	}

	tok.Release()
	if got := gaugeOf(t, reg, "writectrl_stop_votes"); got != 0 {
		t.Fatalf("writectrl_stop_votes = %v, want 0", got)
	}
}

func TestNewHooks_DelayRateTracksActiveToken(t *testing.T) {
	reg := prometheus.NewRegistry()
	ctrl := writectrl.NewController(writectrl.WithHooks(NewHooks(reg)))

	tok, err := ctrl.NewDelayToken(4096)
	if err != nil {
		t.Fatalf("NewDelayToken() error = %v", err)
	}
	defer tok.Release()

	if got := gaugeOf(t, reg, "writectrl_delay_rate_bytes_per_sec"); got != 4096 {
		t.Fatalf("writectrl_delay_rate_bytes_per_sec = %v, want 4096", got)
	}
	if got := gaugeOf(t, reg, "writectrl_delay_votes"); got != 1 {
		t.Fatalf("writectrl_delay_votes = %v, want 1", got)
	}
}

func TestNewHooks_BucketResetIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	ctrl := writectrl.NewController(writectrl.WithHooks(NewHooks(reg)))

	tok1, err := ctrl.NewDelayToken(10)
	if err != nil {
		t.Fatalf("NewDelayToken() error = %v", err)
	}
	defer tok1.Release()

	tok2, err := ctrl.NewDelayToken(20)
	if err != nil {
		t.Fatalf("NewDelayToken() error = %v", err)
	}
	defer tok2.Release()

	if got := counterOf(t, reg, "writectrl_bucket_resets_total"); got != 2 {
		t.Fatalf("writectrl_bucket_resets_total = %v, want 2", got)
	}
}

func TestNewHooks_ClampedSleepIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	ctrl := writectrl.NewController(writectrl.WithHooks(NewHooks(reg)))

	tok, err := ctrl.NewDelayToken(1) // 1 byte/sec: any nontrivial request clamps
	if err != nil {
		t.Fatalf("NewDelayToken() error = %v", err)
	}
	defer tok.Release()

	ctrl.GetDelay(writectrl.RealClock{}, 10_000_000)

	if got := counterOf(t, reg, "writectrl_sleep_clamped_total"); got != 1 {
		t.Fatalf("writectrl_sleep_clamped_total = %v, want 1", got)
	}
}
