package clock

import (
	"context"
	"time"

	k8sclock "k8s.io/utils/clock"
	clocktesting "k8s.io/utils/clock/testing"
)

type ClockImpl struct {
	clock k8sclock.Clock
}

func NewClock() Clock {
	return &ClockImpl{clock: k8sclock.RealClock{}}
}

func (c *ClockImpl) Now() time.Time {
	return c.clock.Now()
}

func (c *ClockImpl) Since(t time.Time) time.Duration {
	return c.clock.Since(t)
}

func (c *ClockImpl) Sleep(ctx context.Context, d time.Duration) error {
	timer := c.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

// FakeClock advances its own time on Sleep instead of blocking.
type FakeClock struct {
	*clocktesting.FakePassiveClock
	sleeps int
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{FakePassiveClock: clocktesting.NewFakePassiveClock(start)}
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps++
	c.SetTime(c.Now().Add(d))
	return nil
}

// Sleeps returns how many times Sleep advanced the clock.
func (c *FakeClock) Sleeps() int {
	return c.sleeps
}
