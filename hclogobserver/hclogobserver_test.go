package hclogobserver

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/lsmkv/writectrl"
)

func newTestLogger(buf *bytes.Buffer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "writectrl-test",
		Level:  hclog.Trace,
		Output: buf,
	})
}

func TestNewHooks_LogsStopVoteLifecycle(t *testing.T) {
	var buf bytes.Buffer
	ctrl := writectrl.NewController(writectrl.WithHooks(NewHooks(newTestLogger(&buf))))

	tok := ctrl.NewStopToken()
	tok.Release()

	out := buf.String()
	if !strings.Contains(out, "stop vote added") {
		t.Fatalf("log output missing stop vote added: %q", out)
	}
	if !strings.Contains(out, "stop vote released") {
		t.Fatalf("log output missing stop vote released: %q", out)
	}
}

func TestNewHooks_LogsBucketResetOnRateChange(t *testing.T) {
	var buf bytes.Buffer
	ctrl := writectrl.NewController(writectrl.WithHooks(NewHooks(newTestLogger(&buf))))

	tok, err := ctrl.NewDelayToken(1024)
	if err != nil {
		t.Fatalf("NewDelayToken() error = %v", err)
	}
	defer tok.Release()

	if !strings.Contains(buf.String(), "bucket reset") {
		t.Fatalf("log output missing bucket reset: %q", buf.String())
	}
}

func TestNewHooks_LogsClampedSleepAtWarn(t *testing.T) {
	var buf bytes.Buffer
	ctrl := writectrl.NewController(writectrl.WithHooks(NewHooks(newTestLogger(&buf))))

	tok, err := ctrl.NewDelayToken(1) // 1 byte/sec: any nontrivial request clamps
	if err != nil {
		t.Fatalf("NewDelayToken() error = %v", err)
	}
	defer tok.Release()

	ctrl.GetDelay(writectrl.RealClock{}, 10_000_000)

	out := buf.String()
	if !strings.Contains(out, "sleep clamped to max") {
		t.Fatalf("log output missing clamp warning: %q", out)
	}
	if !strings.Contains(out, "[WARN]") {
		t.Fatalf("expected clamp log at WARN level: %q", out)
	}
}
