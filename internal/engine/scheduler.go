package engine

import "time"

// Scheduler abstracts delayed execution so session timing is testable
// without sleeping. The returned cancel function stops the callback if it
// has not fired yet; calling it after the callback ran is harmless.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

type realScheduler struct{}

// NewScheduler returns a Scheduler backed by time.AfterFunc.
func NewScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
