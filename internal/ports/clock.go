package ports

import "time"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ZonedClock reads the system time in Location. Calendar-day grouping follows
// the location of Now.
type ZonedClock struct {
	Location *time.Location
}

func (c ZonedClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
