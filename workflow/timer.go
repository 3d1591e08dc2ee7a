package workflow

import (
	"math"
	"time"
)

// CooldownTimer rate-limits user-triggered resend requests. It is a pure
// wall-clock countdown with no goroutine behind it; the backend stays the
// authority on any real rate limit.
type CooldownTimer struct {
	cooldown time.Duration
	deadline time.Time
	now      func() time.Time
}

func NewCooldownTimer(cooldownSeconds int, now func() time.Time) *CooldownTimer {
	if now == nil {
		now = time.Now
	}
	t := &CooldownTimer{
		cooldown: time.Duration(cooldownSeconds) * time.Second,
		now:      now,
	}
	t.Reset()
	return t
}

// RestoreCooldownTimer rebuilds a timer from a persisted deadline so a
// rehydrated workflow keeps the countdown of the challenge it owns.
func RestoreCooldownTimer(cooldownSeconds int, deadline time.Time, now func() time.Time) *CooldownTimer {
	if now == nil {
		now = time.Now
	}
	return &CooldownTimer{
		cooldown: time.Duration(cooldownSeconds) * time.Second,
		deadline: deadline,
		now:      now,
	}
}

func (t *CooldownTimer) Reset() {
	t.deadline = t.now().Add(t.cooldown)
}

func (t *CooldownTimer) Deadline() time.Time {
	return t.deadline
}

func (t *CooldownTimer) SecondsRemaining() int {
	remaining := int(math.Ceil(t.deadline.Sub(t.now()).Seconds()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (t *CooldownTimer) CanResend() bool {
	return t.SecondsRemaining() <= 0
}
