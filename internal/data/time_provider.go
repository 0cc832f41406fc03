package data

import "time"

// TimeProvider abstracts the clock so repository tests can pin time.
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider returns the wall clock in UTC.
type RealTimeProvider struct{}

func (RealTimeProvider) Now() time.Time { return time.Now().UTC() }

// FixedTimeProvider always returns the same instant.
type FixedTimeProvider struct {
	Fixed time.Time
}

func (f FixedTimeProvider) Now() time.Time { return f.Fixed }
