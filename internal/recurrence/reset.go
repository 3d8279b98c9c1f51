package recurrence

import "time"

// ShouldReset reports whether an item completed at lastCompletedAt should be
// back to pending at now. It never resets an item that was not completed.
//
// Weekly rules always report false: a weekly completion only counts on the
// day it was made, which callers derive with IsDueOn and SameDay.
func ShouldReset(rule Rule, lastCompletedAt *time.Time, now time.Time) (bool, error) {
	if err := Validate(rule); err != nil {
		return false, err
	}
	if lastCompletedAt == nil {
		return false, nil
	}
	last := *lastCompletedAt

	switch r := rule.(type) {
	case Daily:
		return !SameDay(now, last), nil
	case Interval:
		return now.Sub(last) >= r.Duration(), nil
	case AlternatingDays:
		return DaysBetween(last.In(now.Location()), now) >= r.Days, nil
	case Weekly:
		return false, nil
	default:
		return false, invalid("unknown rule type %T", rule)
	}
}
