package engine

import "time"

const tickInterval = time.Second

// countdown drives the one-second tick for the current question. It never
// mutates session state itself: it only fires the callback with the
// generation captured at arm time, and the session decides whether that
// generation is still current. Arming replaces any previous tick, so each
// question gets a fresh, independent countdown instead of a continuously
// running global clock.
type countdown struct {
	sched  Scheduler
	cancel func()
}

func newCountdown(sched Scheduler) *countdown {
	return &countdown{sched: sched}
}

// arm schedules the next tick for the given generation, cancelling any
// tick still pending from before.
func (c *countdown) arm(gen uint64, fire func(gen uint64)) {
	c.stop()
	c.cancel = c.sched.AfterFunc(tickInterval, func() { fire(gen) })
}

// stop cancels the pending tick, if any.
func (c *countdown) stop() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
