package domain

import (
	"fmt"
	"time"
)

type TimeWindow string

const (
	WindowWeek    TimeWindow = "week"
	WindowMonth   TimeWindow = "month"
	WindowQuarter TimeWindow = "quarter"
	WindowYear    TimeWindow = "year"
)

var Windows = []TimeWindow{WindowWeek, WindowMonth, WindowQuarter, WindowYear}

func ParseWindow(raw string) (TimeWindow, error) {
	window := TimeWindow(raw)
	switch window {
	case WindowWeek, WindowMonth, WindowQuarter, WindowYear:
		return window, nil
	default:
		return "", fmt.Errorf("unsupported time window %q (week|month|quarter|year)", raw)
	}
}

// Cutoff returns the earliest creation time still inside the window. Months and
// years are calendar arithmetic in now's location.
func (w TimeWindow) Cutoff(now time.Time) time.Time {
	switch w {
	case WindowWeek:
		return now.AddDate(0, 0, -7)
	case WindowQuarter:
		return now.AddDate(0, -3, 0)
	case WindowYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

func (w TimeWindow) Label() string {
	switch w {
	case WindowWeek:
		return "Last 7 days"
	case WindowMonth:
		return "Last 30 days"
	case WindowQuarter:
		return "Last 3 months"
	case WindowYear:
		return "Last 12 months"
	default:
		return string(w)
	}
}
