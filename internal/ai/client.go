package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hray3182/CareMind/internal/recurrence"
)

var ErrDisabled = errors.New("natural-language parsing is not configured")

type Client struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
		now:    time.Now,
	}
}

// MedicationDraft is a medication proposed from free text. It is shown back
// to the user for confirmation and never stored as is.
type MedicationDraft struct {
	Title             string          `json:"titulo"`
	Dosage            string          `json:"dosagem"`
	QuantityRemaining *int            `json:"quantidade_restante,omitempty"`
	Recurrence        recurrence.JSON `json:"recorrencia"`
	Confidence        float64         `json:"confidence"`
	NeedMoreInfo      bool            `json:"need_more_info"`
	FollowUpPrompt    string          `json:"follow_up_prompt,omitempty"`
	RawResponse       string          `json:"-"`
}

// draftResponse is the model's raw answer before the rule is validated.
type draftResponse struct {
	Title          string          `json:"titulo"`
	Dosage         string          `json:"dosagem"`
	Quantity       *int            `json:"quantidade_restante"`
	Recurrence     json.RawMessage `json:"recorrencia"`
	Confidence     float64         `json:"confidence"`
	NeedMoreInfo   bool            `json:"need_more_info"`
	FollowUpPrompt string          `json:"follow_up_prompt"`
}

const systemPromptTemplate = `Você é o assistente do CareMind e transforma a descrição de um medicamento em dados estruturados.

Data e hora atual: %s

Extraia:
- titulo: nome do medicamento
- dosagem: dose por tomada, como escrita pelo usuário (por exemplo "50mg", "1 comprimido")
- quantidade_restante: unidades disponíveis, ou null se não informado
- recorrencia: a repetição, ou null para dose única

Tipos de recorrencia:
- diario: horarios fixos todos os dias, em HH:MM ("08:00", "20:00")
- intervalo: a cada intervalo_horas horas, contando da primeira dose
- dias_alternados: a cada intervalo_dias dias ("dia sim, dia não" = 2)
- semanal: dias_da_semana (0=domingo ... 6=sábado) e horario HH:MM

Campos que não se aplicam ao tipo escolhido devem ser null ou lista vazia.
Se faltar algo essencial (nome ou horário), defina need_more_info = true e escreva a pergunta em follow_up_prompt.`

func getSystemPrompt(now time.Time) string {
	return fmt.Sprintf(systemPromptTemplate, now.Format("2006-01-02 15:04 (Monday)"))
}

// JSON Schema for structured output
var draftSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"titulo": {"type": "string"},
		"dosagem": {"type": "string"},
		"quantidade_restante": {"type": ["integer", "null"]},
		"recorrencia": {
			"type": ["object", "null"],
			"properties": {
				"tipo": {"type": "string", "enum": ["diario", "intervalo", "dias_alternados", "semanal"]},
				"horarios": {"type": "array", "items": {"type": "string"}},
				"intervalo_horas": {"type": ["number", "null"]},
				"intervalo_dias": {"type": ["integer", "null"]},
				"dias_da_semana": {"type": "array", "items": {"type": "integer", "minimum": 0, "maximum": 6}},
				"horario": {"type": ["string", "null"]}
			},
			"required": ["tipo", "horarios", "intervalo_horas", "intervalo_dias", "dias_da_semana", "horario"],
			"additionalProperties": false
		},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"need_more_info": {"type": "boolean"},
		"follow_up_prompt": {"type": "string"}
	},
	"required": ["titulo", "dosagem", "quantidade_restante", "recorrencia", "confidence", "need_more_info", "follow_up_prompt"],
	"additionalProperties": false
}`)

// ParseMedication asks the model for a medication draft and validates the
// proposed rule like any other client input.
func (c *Client) ParseMedication(ctx context.Context, text string) (*MedicationDraft, error) {
	if c == nil {
		return nil, ErrDisabled
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: getSystemPrompt(c.now()),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "medication_draft",
				Schema: draftSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	content := resp.Choices[0].Message.Content
	var raw draftResponse
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	draft := &MedicationDraft{
		Title:             strings.TrimSpace(raw.Title),
		Dosage:            strings.TrimSpace(raw.Dosage),
		QuantityRemaining: raw.Quantity,
		Confidence:        raw.Confidence,
		NeedMoreInfo:      raw.NeedMoreInfo,
		FollowUpPrompt:    raw.FollowUpPrompt,
		RawResponse:       content,
	}
	rule, err := recurrence.Unmarshal(raw.Recurrence)
	if err != nil {
		return nil, fmt.Errorf("AI proposed an invalid recurrence: %w", err)
	}
	draft.Recurrence = recurrence.JSON{Rule: rule}
	return draft, nil
}
