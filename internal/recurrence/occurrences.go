package recurrence

import (
	"slices"
	"time"
)

// OccurrencesOn lists the instants at which the item occurs during day's
// calendar day, in day's location, sorted and never before anchor.
func OccurrencesOn(rule Rule, anchor, day time.Time) ([]time.Time, error) {
	due, err := IsDueOn(rule, anchor, day)
	if err != nil || !due {
		return nil, err
	}

	var out []time.Time
	switch r := rule.(type) {
	case Daily:
		for _, c := range r.Times {
			out = append(out, c.On(day))
		}
		slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	case Weekly:
		out = append(out, r.Time.On(day))
	case AlternatingDays:
		out = append(out, clockOf(anchor.In(day.Location())).On(day))
	case Interval:
		start := anchor
		if r.StartAt != nil {
			start = *r.StartAt
		}
		out = intervalSteps(start, r.Duration(), StartOfDay(day), addDays(StartOfDay(day), 1))
	}

	filtered := out[:0]
	for _, t := range out {
		if !t.Before(anchor) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// intervalSteps returns start + k*step for every k >= 0 landing in [from, to).
// step is at least MinInterval for any validated rule.
func intervalSteps(start time.Time, step time.Duration, from, to time.Time) []time.Time {
	if !start.Before(to) {
		return nil
	}
	var k int64
	if elapsed := from.Sub(start); elapsed > 0 {
		k = int64((elapsed + step - 1) / step)
	}
	var out []time.Time
	for t := start.Add(time.Duration(k) * step); t.Before(to); t = t.Add(step) {
		out = append(out, t.In(from.Location()))
	}
	return out
}
