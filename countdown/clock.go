package countdown

import "time"

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so the countdown can be driven by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock uses the time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
