package recurrence

import "time"

// StartOfDay returns local midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day. b is viewed
// in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween counts calendar days from a to b (negative when b is earlier).
// Both dates are projected onto UTC midnights first, so a DST shift inside the
// range never turns 24 hours into 23 or 25.
func DaysBetween(a, b time.Time) int {
	b = b.In(a.Location())
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// addDays moves t by n calendar days keeping its wall clock.
func addDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
