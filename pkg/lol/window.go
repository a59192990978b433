package lol

import "time"

// Window is the absolute time range of a match-history listing.
type Window struct {
	Start time.Time
	End   time.Time
	Days  int
}

// NewWindow returns the window ending at now and spanning days, clamped to
// [0, maxDays]. A zero-day window is valid and empty.
func NewWindow(now time.Time, days, maxDays int) Window {
	if days > maxDays {
		days = maxDays
	}
	if days < 0 {
		days = 0
	}

	end := now.UTC().Truncate(time.Second)
	return Window{
		Start: end.Add(-time.Duration(days) * 24 * time.Hour),
		End:   end,
		Days:  days,
	}
}

// Empty reports whether the window spans no time.
func (w Window) Empty() bool {
	return w.Days == 0
}
