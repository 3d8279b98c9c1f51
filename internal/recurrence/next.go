package recurrence

import (
	"slices"
	"time"
)

// NextOccurrence returns the occurrence following last. The result is always
// strictly after last.
func NextOccurrence(rule Rule, last time.Time) (time.Time, error) {
	if err := Validate(rule); err != nil {
		return time.Time{}, err
	}

	switch r := rule.(type) {
	case Daily:
		return addDays(last, 1), nil
	case Interval:
		return last.Add(r.Duration()), nil
	case AlternatingDays:
		return addDays(last, r.Days), nil
	case Weekly:
		return nextWeekly(r, last), nil
	default:
		return time.Time{}, invalid("unknown rule type %T", rule)
	}
}

func nextWeekly(r Weekly, last time.Time) time.Time {
	day := StartOfDay(last)
	for i := 1; i <= 7; i++ {
		candidate := addDays(day, i)
		if r.Contains(candidate.Weekday()) {
			return r.Time.On(candidate)
		}
	}
	// Unreachable for a validated rule; kept so the scan has a defined end.
	first := slices.Min(r.Weekdays)
	offset := (int(first) - int(day.Weekday()) + 7) % 7
	return r.Time.On(addDays(day, offset+7))
}
