// Package timetag maps wall-clock time to the integer day index ("time-tag")
// used as the period key of the credit and traffic tables.
//
// A time-tag counts whole days since the Unix epoch. The day boundary sits
// at 00:00 UTC, which is 01:00 CET and 02:00 CEST: the batch jobs filling
// the credit table roll over at that hour, not at local midnight. A cutover
// offset shifts the boundary for deployments whose aggregator runs elsewhere.
package timetag

import "time"

const secondsPerDay = 86400

// Clock converts instants to time-tags.
type Clock struct {
	now    func() time.Time
	offset time.Duration
}

// NewClock returns a Clock whose day boundary is offset from 00:00 UTC.
// A nil now uses time.Now.
func NewClock(offset time.Duration, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now, offset: offset}
}

// Current returns the time-tag of now.
func (c *Clock) Current() int64 {
	return c.FromTime(c.now())
}

// FromTime returns the time-tag containing t.
func (c *Clock) FromTime(t time.Time) int64 {
	return floorDiv(t.Unix()-int64(c.offset/time.Second), secondsPerDay)
}

// Start returns the instant a time-tag begins.
func (c *Clock) Start(tag int64) time.Time {
	return time.Unix(tag*secondsPerDay, 0).Add(c.offset).UTC()
}

// FromTimestamp converts a Unix timestamp with the default boundary.
func FromTimestamp(ts int64) int64 {
	return floorDiv(ts, secondsPerDay)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
