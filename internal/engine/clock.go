package engine

import "time"

// clock tracks a simulation's virtual time. T_sim advances by DeltaT each
// tick; wall-clock pacing (the acceleration factor) is applied by the loop
// driving the clock, not the clock itself.
type clock struct {
	epoch  time.Time
	tsim   time.Time
	deltaT time.Duration
}

func newClock(epoch time.Time, deltaT time.Duration) *clock {
	return &clock{epoch: epoch, tsim: epoch, deltaT: deltaT}
}

// Advance moves virtual time forward by one tick and returns the new value.
func (c *clock) Advance() time.Time {
	c.tsim = c.tsim.Add(c.deltaT)
	return c.tsim
}

// Now returns the current virtual time without advancing it.
func (c *clock) Now() time.Time {
	return c.tsim
}

// Elapsed returns virtual time elapsed since the epoch.
func (c *clock) Elapsed() time.Duration {
	return c.tsim.Sub(c.epoch)
}
