package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealClock(t *testing.T) {
	t.Parallel()
	var c Clock = RealClock{}

	before := time.Now()
	now := c.Now()
	assert.False(t, now.Before(before))
	assert.GreaterOrEqual(t, c.Since(before), time.Duration(0))

	ticker := c.NewTicker(time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker never fired")
	}
}

func TestMockClockNowSetAdvance(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(t0)

	assert.Equal(t, t0, c.Now())

	c.Advance(time.Second)
	assert.Equal(t, t0.Add(time.Second), c.Now())
	assert.Equal(t, time.Second, c.Since(t0))

	c.Set(t0)
	assert.Equal(t, t0, c.Now())
}

func TestMockClockSleepRecords(t *testing.T) {
	t.Parallel()
	c := NewMockClock(time.Now())

	done := make(chan struct{})
	go func() {
		c.Sleep(5 * time.Second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mock sleep blocked")
	}
	require.Len(t, c.Sleeps(), 1)
	assert.Equal(t, 5*time.Second, c.Sleeps()[0])
}

func TestMockTicker(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("advance fires when the interval elapses", func(t *testing.T) {
		t.Parallel()
		c := NewMockClock(t0)
		ticker := c.NewTicker(100 * time.Millisecond)

		c.Advance(50 * time.Millisecond)
		select {
		case <-ticker.C():
			t.Fatal("ticker fired before its interval")
		default:
		}

		c.Advance(60 * time.Millisecond)
		select {
		case tick := <-ticker.C():
			assert.Equal(t, t0.Add(110*time.Millisecond), tick)
		default:
			t.Fatal("ticker did not fire")
		}
	})

	t.Run("stopped ticker stays silent", func(t *testing.T) {
		t.Parallel()
		c := NewMockClock(t0)
		ticker := c.NewTicker(10 * time.Millisecond)
		ticker.Stop()

		c.Advance(time.Second)
		select {
		case <-ticker.C():
			t.Fatal("stopped ticker fired")
		default:
		}
	})

	t.Run("trigger injects a tick directly", func(t *testing.T) {
		t.Parallel()
		c := NewMockClock(t0)
		ticker := c.NewTicker(time.Hour).(*MockTicker)
		ticker.Trigger(t0)

		select {
		case tick := <-ticker.C():
			assert.Equal(t, t0, tick)
		default:
			t.Fatal("trigger did not deliver")
		}
	})
}
