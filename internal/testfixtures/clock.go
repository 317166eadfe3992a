package testfixtures

import (
	"sync"
	"time"
)

// FixtureLocation is the service timezone fixtures are written against.
// ReferenceTime falls on Wednesday 10:00 in it.
var FixtureLocation = time.FixedZone("UTC+9", 9*60*60)

// Clock is a settable "now" for validator and service tests. It also knows
// the service timezone so tests can name local wall-clock instants.
type Clock struct {
	mu       sync.Mutex
	current  time.Time
	location *time.Location
}

// NewClock returns a clock at start in FixtureLocation. A zero start means
// ReferenceTime.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start, location: FixtureLocation}
}

// In switches the timezone used by Today and Local.
func (c *Clock) In(loc *time.Location) *Clock {
	c.mu.Lock()
	defer c.mu.Unlock()
	if loc != nil {
		c.location = loc
	}
	return c
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection into services and validators.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// Today returns local midnight of the clock's current date.
func (c *Clock) Today() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	local := c.current.In(c.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.location)
}

// Local returns hour:minute local time, days after today. Negative days
// point into the past.
func (c *Clock) Local(days, hour, minute int) time.Time {
	today := c.Today()
	return time.Date(today.Year(), today.Month(), today.Day()+days, hour, minute, 0, 0, today.Location())
}
