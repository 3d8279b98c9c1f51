package recurrence

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestUnmarshal(t *testing.T) {
	start := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		data string
		want Rule
	}{
		{
			name: "daily",
			data: `{"tipo":"diario","horarios":["08:00","20:00"]}`,
			want: Daily{Times: []Clock{{8, 0}, {20, 0}}},
		},
		{
			name: "interval",
			data: `{"tipo":"intervalo","intervalo_horas":8}`,
			want: Interval{Hours: 8},
		},
		{
			name: "interval with start",
			data: `{"tipo":"intervalo","intervalo_horas":6.5,"data_inicio":"2024-01-01T06:00:00Z"}`,
			want: Interval{Hours: 6.5, StartAt: &start},
		},
		{
			name: "alternating days",
			data: `{"tipo":"dias_alternados","intervalo_dias":3}`,
			want: AlternatingDays{Days: 3},
		},
		{
			name: "weekly",
			data: `{"tipo":"semanal","dias_da_semana":[1,3,5],"horario":"08:00"}`,
			want: Weekly{Weekdays: []time.Weekday{time.Monday, time.Wednesday, time.Friday}, Time: Clock{8, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unmarshal([]byte(tt.data))
			if err != nil {
				t.Fatalf("Unmarshal returned error: %v", err)
			}
			if iv, ok := got.(Interval); ok && iv.StartAt != nil {
				want := tt.want.(Interval)
				if !iv.StartAt.Equal(*want.StartAt) || iv.Hours != want.Hours {
					t.Errorf("Unmarshal = %#v, want %#v", got, tt.want)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unmarshal = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestUnmarshal_OneOff(t *testing.T) {
	for _, data := range []string{"", "null", "  null "} {
		rule, err := Unmarshal([]byte(data))
		if err != nil {
			t.Fatalf("Unmarshal(%q) returned error: %v", data, err)
		}
		if rule != nil {
			t.Errorf("Unmarshal(%q) = %#v, want nil", data, rule)
		}
	}
}

func TestUnmarshal_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown tipo":         `{"tipo":"mensal"}`,
		"empty weekdays":       `{"tipo":"semanal","dias_da_semana":[],"horario":"08:00"}`,
		"weekday out of range": `{"tipo":"semanal","dias_da_semana":[7],"horario":"08:00"}`,
		"missing horario":      `{"tipo":"semanal","dias_da_semana":[1]}`,
		"zero hours":           `{"tipo":"intervalo","intervalo_horas":0}`,
		"missing hours":        `{"tipo":"intervalo"}`,
		"sub-minute interval":  `{"tipo":"intervalo","intervalo_horas":0.01}`,
		"zero days":            `{"tipo":"dias_alternados","intervalo_dias":0}`,
		"bad time":             `{"tipo":"diario","horarios":["25:00"]}`,
		"no times":             `{"tipo":"diario","horarios":[]}`,
		"not json":             `{"tipo":`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(data)); !errors.Is(err, ErrInvalidRule) {
				t.Errorf("Unmarshal(%s) error = %v, want ErrInvalidRule", data, err)
			}
		})
	}
}

func TestMarshal_Discriminants(t *testing.T) {
	tests := []struct {
		rule Rule
		want []string
	}{
		{Daily{Times: []Clock{{7, 30}}}, []string{`"tipo":"diario"`, `"horarios":["07:30"]`}},
		{Interval{Hours: 12}, []string{`"tipo":"intervalo"`, `"intervalo_horas":12`}},
		{AlternatingDays{Days: 2}, []string{`"tipo":"dias_alternados"`, `"intervalo_dias":2`}},
		{Weekly{Weekdays: []time.Weekday{0, 6}, Time: Clock{9, 0}}, []string{`"tipo":"semanal"`, `"dias_da_semana":[0,6]`, `"horario":"09:00"`}},
	}
	for _, tt := range tests {
		data, err := Marshal(tt.rule)
		if err != nil {
			t.Fatalf("Marshal(%#v) returned error: %v", tt.rule, err)
		}
		for _, fragment := range tt.want {
			if !strings.Contains(string(data), fragment) {
				t.Errorf("Marshal(%#v) = %s, missing %s", tt.rule, data, fragment)
			}
		}
	}
}

func TestMarshal_RejectsInvalid(t *testing.T) {
	if _, err := Marshal(Weekly{Time: Clock{8, 0}}); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule, got %v", err)
	}
}

func TestJSONField(t *testing.T) {
	var body struct {
		Title      string `json:"titulo"`
		Recurrence JSON   `json:"recorrencia"`
	}
	data := `{"titulo":"Losartana","recorrencia":{"tipo":"semanal","dias_da_semana":[2],"horario":"21:00"}}`
	if err := json.Unmarshal([]byte(data), &body); err != nil {
		t.Fatalf("json.Unmarshal returned error: %v", err)
	}
	weekly, ok := body.Recurrence.Rule.(Weekly)
	if !ok {
		t.Fatalf("expected Weekly rule, got %T", body.Recurrence.Rule)
	}
	if !weekly.Contains(time.Tuesday) || weekly.Time != (Clock{21, 0}) {
		t.Errorf("unexpected weekly rule %#v", weekly)
	}

	out, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json.Marshal returned error: %v", err)
	}
	if !strings.Contains(string(out), `"recorrencia":{"tipo":"semanal"`) {
		t.Errorf("unexpected encoding %s", out)
	}

	if err := json.Unmarshal([]byte(`{"recorrencia":{"tipo":"semanal","horario":"21:00"}}`), &body); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule through encoding/json, got %v", err)
	}
}
