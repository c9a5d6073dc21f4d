package service

import "time"

// Clock supplies the current time. Services take a Clock so tests can
// pin "now" and exercise due-date and time-limit edges deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// NewClock returns the wall clock, reporting UTC.
func NewClock() Clock { return realClock{} }

// fixedClock is a test helper that always reports the same instant.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// NewFixedClock returns a Clock pinned to t.
func NewFixedClock(t time.Time) Clock { return fixedClock{t: t} }
