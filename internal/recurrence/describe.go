package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = [...]string{
	time.Sunday:    "dom",
	time.Monday:    "seg",
	time.Tuesday:   "ter",
	time.Wednesday: "qua",
	time.Thursday:  "qui",
	time.Friday:    "sex",
	time.Saturday:  "sáb",
}

// Describe returns a short Portuguese description of the rule, used in
// notification texts. A nil rule is a one-off item.
func Describe(rule Rule) string {
	switch r := rule.(type) {
	case nil:
		return "Dose única"
	case Daily:
		times := make([]string, len(r.Times))
		for i, c := range r.Times {
			times[i] = c.String()
		}
		return "Todos os dias às " + strings.Join(times, ", ")
	case Interval:
		hours := strconv.FormatFloat(r.Hours, 'f', -1, 64)
		if r.Hours == 1 {
			return "A cada 1 hora"
		}
		return fmt.Sprintf("A cada %s horas", hours)
	case AlternatingDays:
		if r.Days == 1 {
			return "Todos os dias"
		}
		return fmt.Sprintf("A cada %d dias", r.Days)
	case Weekly:
		names := make([]string, 0, len(r.Weekdays))
		for _, wd := range r.Weekdays {
			if wd >= time.Sunday && wd <= time.Saturday {
				names = append(names, weekdayNames[wd])
			}
		}
		return fmt.Sprintf("Toda %s às %s", strings.Join(names, ", "), r.Time)
	default:
		return string(rule.Kind())
	}
}
