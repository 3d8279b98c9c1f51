package recurrence

import "time"

// IsDueOn reports whether an item created at anchor with the given rule is due
// on target's calendar day. Time of day is ignored. A target before the anchor
// day is never due.
func IsDueOn(rule Rule, anchor, target time.Time) (bool, error) {
	if err := Validate(rule); err != nil {
		return false, err
	}
	targetDay := StartOfDay(target)
	anchorDay := StartOfDay(anchor.In(target.Location()))
	if targetDay.Before(anchorDay) {
		return false, nil
	}

	switch r := rule.(type) {
	case Daily:
		return true, nil
	case Interval:
		if r.StartAt != nil {
			return !targetDay.Before(StartOfDay(r.StartAt.In(target.Location()))), nil
		}
		return true, nil
	case AlternatingDays:
		return DaysBetween(anchorDay, targetDay)%r.Days == 0, nil
	case Weekly:
		return r.Contains(targetDay.Weekday()), nil
	default:
		return false, invalid("unknown rule type %T", rule)
	}
}
