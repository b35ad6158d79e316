package domain

import "time"

// DateRange is a half-open-ish window [Start, End] used by metric and DORA
// queries.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// LastDays builds a range covering the trailing n days ending now.
func LastDays(n int, now time.Time) DateRange {
	return DateRange{Start: now.AddDate(0, 0, -n), End: now}
}

// Days returns the span in whole days, floored to a minimum of 1 so it is
// always safe to divide by.
func (r DateRange) Days() int {
	days := int(r.End.Sub(r.Start).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// Contains reports whether t falls inside the range, bounds inclusive.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
