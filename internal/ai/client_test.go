package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hray3182/CareMind/internal/recurrence"
)

func fakeCompletion(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req["model"] != "test-model" {
			t.Errorf("model = %v, want test-model", req["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func TestParseMedication(t *testing.T) {
	srv := fakeCompletion(t, `{
		"titulo": " Losartana ",
		"dosagem": "50mg",
		"quantidade_restante": 30,
		"recorrencia": {"tipo": "semanal", "horarios": [], "intervalo_horas": null, "intervalo_dias": null, "dias_da_semana": [1, 4], "horario": "08:00"},
		"confidence": 0.9,
		"need_more_info": false,
		"follow_up_prompt": ""
	}`)
	defer srv.Close()

	c := New("key", srv.URL, "test-model")
	draft, err := c.ParseMedication(context.Background(), "losartana 50mg segunda e quinta às 8h, tenho 30")
	if err != nil {
		t.Fatalf("ParseMedication returned error: %v", err)
	}
	if draft.Title != "Losartana" || draft.Dosage != "50mg" {
		t.Errorf("unexpected draft %+v", draft)
	}
	if draft.QuantityRemaining == nil || *draft.QuantityRemaining != 30 {
		t.Errorf("QuantityRemaining = %v, want 30", draft.QuantityRemaining)
	}
	weekly, ok := draft.Recurrence.Rule.(recurrence.Weekly)
	if !ok || !weekly.Contains(time.Thursday) || weekly.Time != recurrence.MustClock("08:00") {
		t.Errorf("unexpected rule %#v", draft.Recurrence.Rule)
	}
}

func TestParseMedication_OneOff(t *testing.T) {
	srv := fakeCompletion(t, `{"titulo":"Dipirona","dosagem":"1g","quantidade_restante":null,"recorrencia":null,"confidence":0.7,"need_more_info":false,"follow_up_prompt":""}`)
	defer srv.Close()

	draft, err := New("key", srv.URL, "test-model").ParseMedication(context.Background(), "dipirona 1g agora")
	if err != nil {
		t.Fatalf("ParseMedication returned error: %v", err)
	}
	if draft.Recurrence.Rule != nil || draft.QuantityRemaining != nil {
		t.Errorf("expected one-off draft without stock, got %+v", draft)
	}
}

func TestParseMedication_InvalidRule(t *testing.T) {
	srv := fakeCompletion(t, `{"titulo":"X","dosagem":"","quantidade_restante":null,"recorrencia":{"tipo":"dias_alternados","horarios":[],"intervalo_horas":null,"intervalo_dias":0,"dias_da_semana":[],"horario":null},"confidence":0.2,"need_more_info":false,"follow_up_prompt":""}`)
	defer srv.Close()

	_, err := New("key", srv.URL, "test-model").ParseMedication(context.Background(), "x")
	if !errors.Is(err, recurrence.ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule, got %v", err)
	}
}

func TestParseMedication_Disabled(t *testing.T) {
	var c *Client
	if _, err := c.ParseMedication(context.Background(), "x"); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}
