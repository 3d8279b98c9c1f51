package recurrence

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// ToRRule projects a rule onto RFC 5545 recurrence rules anchored at the item's
// creation time. Daily rules with several times become one DAILY rule per time.
func ToRRule(rule Rule, anchor time.Time) ([]*rrule.RRule, error) {
	if err := Validate(rule); err != nil {
		return nil, err
	}

	var opts []rrule.ROption
	switch r := rule.(type) {
	case Daily:
		for _, c := range r.Times {
			opts = append(opts, rrule.ROption{Freq: rrule.DAILY, Dtstart: c.On(anchor)})
		}
	case Interval:
		start := anchor
		if r.StartAt != nil {
			start = r.StartAt.In(anchor.Location())
		}
		d := r.Duration()
		switch {
		case d%time.Hour == 0:
			opts = append(opts, rrule.ROption{Freq: rrule.HOURLY, Interval: int(d / time.Hour), Dtstart: start})
		case d%time.Minute == 0:
			opts = append(opts, rrule.ROption{Freq: rrule.MINUTELY, Interval: int(d / time.Minute), Dtstart: start})
		default:
			// RRULE has no sub-second frequency; the export rounds to the second.
			opts = append(opts, rrule.ROption{Freq: rrule.SECONDLY, Interval: int(d.Round(time.Second) / time.Second), Dtstart: start})
		}
	case AlternatingDays:
		opts = append(opts, rrule.ROption{Freq: rrule.DAILY, Interval: r.Days, Dtstart: anchor})
	case Weekly:
		days := make([]rrule.Weekday, 0, len(r.Weekdays))
		for _, wd := range r.Weekdays {
			days = append(days, rruleWeekdays[wd])
		}
		opts = append(opts, rrule.ROption{Freq: rrule.WEEKLY, Byweekday: days, Dtstart: r.Time.On(anchor)})
	}

	out := make([]*rrule.RRule, 0, len(opts))
	for _, opt := range opts {
		rr, err := rrule.NewRRule(opt)
		if err != nil {
			return nil, fmt.Errorf("failed to build RRULE for %s: %w", rule.Kind(), err)
		}
		out = append(out, rr)
	}
	return out, nil
}

// RRuleStrings returns the RRULE lines of ToRRule, for calendar clients.
func RRuleStrings(rule Rule, anchor time.Time) ([]string, error) {
	rules, err := ToRRule(rule, anchor)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rules))
	for _, rr := range rules {
		out = append(out, rr.OrigOptions.RRuleString())
	}
	return out, nil
}

// Between lists occurrences in [from, to] that are not before anchor, sorted.
// Interval rules walk the same start + k*Hours grid as OccurrencesOn, so the
// instants agree even when the interval is not a whole number of seconds.
func Between(rule Rule, anchor, from, to time.Time) ([]time.Time, error) {
	if r, ok := rule.(Interval); ok {
		if err := Validate(r); err != nil {
			return nil, err
		}
		start := anchor
		if r.StartAt != nil {
			start = *r.StartAt
		}
		var out []time.Time
		for _, t := range intervalSteps(start, r.Duration(), from, to.Add(time.Nanosecond)) {
			if !t.Before(anchor) {
				out = append(out, t)
			}
		}
		return out, nil
	}

	rules, err := ToRRule(rule, anchor)
	if err != nil {
		return nil, err
	}
	set := &rrule.Set{}
	for _, rr := range rules {
		set.RRule(rr)
	}

	var out []time.Time
	for _, t := range set.Between(from, to, true) {
		if !t.Before(anchor) {
			out = append(out, t.In(from.Location()))
		}
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out, nil
}
