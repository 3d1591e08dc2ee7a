package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestCooldownMonotonicity(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	timer := NewCooldownTimer(60, clock.Now)

	require.Equal(t, 60, timer.SecondsRemaining())
	require.False(t, timer.CanResend())

	last := timer.SecondsRemaining()
	for i := 0; i < 70; i++ {
		clock.Advance(1 * time.Second)
		remaining := timer.SecondsRemaining()
		require.LessOrEqual(t, remaining, last)
		if remaining > 0 {
			require.False(t, timer.CanResend())
		}
		last = remaining
	}
	require.Equal(t, 0, timer.SecondsRemaining())
	require.True(t, timer.CanResend())
}

func TestCooldownReset(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	timer := NewCooldownTimer(60, clock.Now)

	clock.Advance(61 * time.Second)
	require.True(t, timer.CanResend())

	timer.Reset()
	require.Equal(t, 60, timer.SecondsRemaining())
	require.False(t, timer.CanResend())
}

func TestCooldownRestore(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	deadline := clock.now.Add(15 * time.Second)

	timer := RestoreCooldownTimer(60, deadline, clock.Now)
	require.Equal(t, 15, timer.SecondsRemaining())

	clock.Advance(15 * time.Second)
	require.True(t, timer.CanResend())
}
