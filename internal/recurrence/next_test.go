package recurrence

import (
	"errors"
	"testing"
	"time"
)

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		last string
		want string
	}{
		{
			name: "weekly monday wednesday friday from saturday",
			rule: Weekly{Weekdays: []time.Weekday{time.Monday, time.Wednesday, time.Friday}, Time: MustClock("08:00")},
			last: "2024-01-06 08:00",
			want: "2024-01-08 08:00",
		},
		{
			name: "weekly sunday wraps from saturday",
			rule: Weekly{Weekdays: []time.Weekday{time.Sunday}, Time: MustClock("09:00")},
			last: "2024-01-06 10:00",
			want: "2024-01-07 09:00",
		},
		{
			name: "weekly single weekday skips to next week",
			rule: Weekly{Weekdays: []time.Weekday{time.Monday}, Time: MustClock("08:00")},
			last: "2024-01-08 08:00",
			want: "2024-01-15 08:00",
		},
		{
			name: "weekly same weekday earlier than rule time still moves on",
			rule: Weekly{Weekdays: []time.Weekday{time.Sunday}, Time: MustClock("08:00")},
			last: "2024-01-07 07:00",
			want: "2024-01-14 08:00",
		},
		{
			name: "daily crosses month",
			rule: Daily{Times: []Clock{MustClock("20:00")}},
			last: "2024-01-31 20:00",
			want: "2024-02-01 20:00",
		},
		{
			name: "interval exact hours",
			rule: Interval{Hours: 8},
			last: "2024-01-01 06:00",
			want: "2024-01-01 14:00",
		},
		{
			name: "interval fractional hours",
			rule: Interval{Hours: 1.5},
			last: "2024-01-01 23:00",
			want: "2024-01-02 00:30",
		},
		{
			name: "alternating days across leap day",
			rule: AlternatingDays{Days: 3},
			last: "2024-02-27 09:15",
			want: "2024-03-01 09:15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(tt.rule, at(t, tt.last))
			if err != nil {
				t.Fatalf("NextOccurrence returned error: %v", err)
			}
			if want := at(t, tt.want); !got.Equal(want) {
				t.Errorf("NextOccurrence(%s) = %s, want %s", tt.last, got.Format(time.RFC3339), want.Format(time.RFC3339))
			}
		})
	}
}

func TestNextOccurrence_AlwaysAfterLast(t *testing.T) {
	rules := []Rule{
		Daily{Times: []Clock{MustClock("00:00"), MustClock("23:59")}},
		Interval{Hours: 0.25},
		Interval{Hours: 36},
		AlternatingDays{Days: 1},
		AlternatingDays{Days: 7},
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		rules = append(rules,
			Weekly{Weekdays: []time.Weekday{wd}, Time: MustClock("00:00")},
			Weekly{Weekdays: []time.Weekday{wd}, Time: MustClock("23:59")},
		)
	}

	start := at(t, "2024-01-01 00:00")
	for _, rule := range rules {
		for step := 0; step < 21*24; step += 7 {
			last := start.Add(time.Duration(step) * time.Hour)
			next, err := NextOccurrence(rule, last)
			if err != nil {
				t.Fatalf("NextOccurrence(%#v) returned error: %v", rule, err)
			}
			if !next.After(last) {
				t.Fatalf("NextOccurrence(%#v, %s) = %s, not after last", rule, last, next)
			}
		}
	}
}

func TestNextOccurrence_WeeklyEveryBoundaryWeekday(t *testing.T) {
	// 2024-01-07 is a Sunday; walk one full week of "last" days.
	for offset := 0; offset < 7; offset++ {
		last := at(t, "2024-01-07 12:00").AddDate(0, 0, offset)
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			rule := Weekly{Weekdays: []time.Weekday{wd}, Time: MustClock("12:00")}
			next, err := NextOccurrence(rule, last)
			if err != nil {
				t.Fatalf("NextOccurrence returned error: %v", err)
			}
			if next.Weekday() != wd {
				t.Errorf("last=%s weekday=%s: got %s", last.Weekday(), wd, next.Weekday())
			}
			days := DaysBetween(last, next)
			if days < 1 || days > 7 {
				t.Errorf("last=%s weekday=%s: next is %d days away", last.Weekday(), wd, days)
			}
		}
	}
}

func TestNextOccurrence_InvalidRule(t *testing.T) {
	_, err := NextOccurrence(Weekly{Weekdays: nil, Time: MustClock("08:00")}, at(t, "2024-01-01 08:00"))
	if !errors.Is(err, ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule, got %v", err)
	}
}
