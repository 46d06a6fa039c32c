package writectrl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_NowMicrosMonotonic(t *testing.T) {
	c := RealClock{}
	first := c.NowMicros()
	time.Sleep(2 * time.Millisecond)
	second := c.NowMicros()

	assert.Greater(t, second, first)
}

func TestRealClock_NewTimerFires(t *testing.T) {
	c := RealClock{}
	timer := c.NewTimer(5 * time.Millisecond)

	select {
	case <-timer.C():
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timer never fired")
	}
}

func TestRealClock_TimerStop(t *testing.T) {
	c := RealClock{}
	timer := c.NewTimer(time.Hour)
	stopped := timer.Stop()
	assert.True(t, stopped)
}
