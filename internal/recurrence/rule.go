// Package recurrence evaluates how medications and routines repeat: whether an
// item is due on a date, when it next occurs and whether a completed item goes
// back to pending for a new cycle.
package recurrence

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidRule is returned for malformed rules. Callers match it with errors.Is.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Kind is the persisted discriminant of a rule ("tipo").
type Kind string

const (
	KindDaily           Kind = "diario"
	KindInterval        Kind = "intervalo"
	KindAlternatingDays Kind = "dias_alternados"
	KindWeekly          Kind = "semanal"
)

// Rule is one of Daily, Interval, AlternatingDays or Weekly. The set is
// closed: functions in this package switch over the four types and reject
// anything else with ErrInvalidRule.
type Rule interface {
	Kind() Kind
	isRule()
}

// Daily occurs every calendar day at each listed time.
type Daily struct {
	Times []Clock
}

// Interval occurs every Hours hours from StartAt, or from the item's creation
// when StartAt is nil.
type Interval struct {
	Hours   float64
	StartAt *time.Time
}

// AlternatingDays occurs every Days calendar days counted from the item's
// creation date.
type AlternatingDays struct {
	Days int
}

// Weekly occurs on each weekday in Weekdays at Time.
type Weekly struct {
	Weekdays []time.Weekday
	Time     Clock
}

func (Daily) Kind() Kind           { return KindDaily }
func (Interval) Kind() Kind        { return KindInterval }
func (AlternatingDays) Kind() Kind { return KindAlternatingDays }
func (Weekly) Kind() Kind          { return KindWeekly }

func (Daily) isRule()           {}
func (Interval) isRule()        {}
func (AlternatingDays) isRule() {}
func (Weekly) isRule()          {}

// MinInterval is the shortest Interval accepted. Schedules are kept at
// HH:MM precision.
const MinInterval = time.Minute

// Duration returns the interval as a time.Duration.
func (r Interval) Duration() time.Duration {
	return time.Duration(r.Hours * float64(time.Hour))
}

// Contains reports whether wd is one of the rule's weekdays.
func (r Weekly) Contains(wd time.Weekday) bool {
	for _, d := range r.Weekdays {
		if d == wd {
			return true
		}
	}
	return false
}

// Validate checks the invariants of every variant.
func Validate(rule Rule) error {
	switch r := rule.(type) {
	case Daily:
		if len(r.Times) == 0 {
			return invalid("daily rule needs at least one time")
		}
		for _, c := range r.Times {
			if !c.valid() {
				return invalid("time %s out of range", c)
			}
		}
	case Interval:
		if !(r.Hours > 0) || math.IsInf(r.Hours, 1) || r.Duration() <= 0 {
			return invalid("hours interval must be positive, got %v", r.Hours)
		}
		if r.Duration() < MinInterval {
			return invalid("hours interval must be at least one minute, got %v", r.Hours)
		}
	case AlternatingDays:
		if r.Days < 1 {
			return invalid("day interval must be at least 1, got %d", r.Days)
		}
	case Weekly:
		if len(r.Weekdays) == 0 {
			return invalid("weekly rule needs at least one weekday")
		}
		for _, wd := range r.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return invalid("weekday %d out of range [0,6]", int(wd))
			}
		}
		if !r.Time.valid() {
			return invalid("time %s out of range", r.Time)
		}
	case nil:
		return invalid("missing rule")
	default:
		return invalid("unknown rule type %T", rule)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRule, fmt.Sprintf(format, args...))
}
