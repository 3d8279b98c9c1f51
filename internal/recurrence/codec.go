package recurrence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// wireRule is the persisted shape. Field names are shared with data written
// by earlier clients and must not change.
type wireRule struct {
	Tipo           Kind       `json:"tipo"`
	Horarios       []string   `json:"horarios,omitempty"`
	IntervaloHoras *float64   `json:"intervalo_horas,omitempty"`
	DataInicio     *time.Time `json:"data_inicio,omitempty"`
	IntervaloDias  *int       `json:"intervalo_dias,omitempty"`
	DiasDaSemana   []int      `json:"dias_da_semana,omitempty"`
	Horario        string     `json:"horario,omitempty"`
}

// Marshal encodes a rule. A nil rule encodes as JSON null.
func Marshal(rule Rule) ([]byte, error) {
	if rule == nil {
		return []byte("null"), nil
	}
	if err := Validate(rule); err != nil {
		return nil, err
	}

	w := wireRule{Tipo: rule.Kind()}
	switch r := rule.(type) {
	case Daily:
		for _, c := range r.Times {
			w.Horarios = append(w.Horarios, c.String())
		}
	case Interval:
		hours := r.Hours
		w.IntervaloHoras = &hours
		w.DataInicio = r.StartAt
	case AlternatingDays:
		days := r.Days
		w.IntervaloDias = &days
	case Weekly:
		for _, wd := range r.Weekdays {
			w.DiasDaSemana = append(w.DiasDaSemana, int(wd))
		}
		w.Horario = r.Time.String()
	}
	return json.Marshal(w)
}

// Unmarshal decodes and validates a rule. Empty input and JSON null decode to
// a nil rule, meaning a one-off item.
func Unmarshal(data []byte) (Rule, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var w wireRule
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	var rule Rule
	switch w.Tipo {
	case KindDaily:
		times := make([]Clock, 0, len(w.Horarios))
		for _, h := range w.Horarios {
			c, err := ParseClock(h)
			if err != nil {
				return nil, err
			}
			times = append(times, c)
		}
		rule = Daily{Times: times}
	case KindInterval:
		if w.IntervaloHoras == nil {
			return nil, invalid("intervalo_horas is required")
		}
		rule = Interval{Hours: *w.IntervaloHoras, StartAt: w.DataInicio}
	case KindAlternatingDays:
		if w.IntervaloDias == nil {
			return nil, invalid("intervalo_dias is required")
		}
		rule = AlternatingDays{Days: *w.IntervaloDias}
	case KindWeekly:
		weekdays := make([]time.Weekday, 0, len(w.DiasDaSemana))
		for _, d := range w.DiasDaSemana {
			weekdays = append(weekdays, time.Weekday(d))
		}
		c, err := ParseClock(w.Horario)
		if err != nil {
			return nil, err
		}
		rule = Weekly{Weekdays: weekdays, Time: c}
	default:
		return nil, invalid("unknown tipo %q", w.Tipo)
	}

	if err := Validate(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// JSON carries a rule through encoding/json, e.g. inside request bodies.
type JSON struct {
	Rule Rule
}

func (j JSON) MarshalJSON() ([]byte, error) {
	return Marshal(j.Rule)
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	rule, err := Unmarshal(data)
	if err != nil {
		return err
	}
	j.Rule = rule
	return nil
}
