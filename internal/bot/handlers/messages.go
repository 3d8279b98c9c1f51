package handlers

import (
	"strconv"
	"strings"

	"github.com/hray3182/CareMind/internal/ai"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/format"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/hray3182/CareMind/internal/recurrence"
)

// TodayMessage lists the day's items, pending ones first.
func TodayMessage(views []care.ItemView) format.Message {
	var b format.Builder
	if len(views) == 0 {
		b.Text("📋 Nada programado para hoje.")
		return b.Build()
	}

	b.Text("📋 ").Bold("Hoje").Line()
	for _, done := range []bool{false, true} {
		for _, v := range views {
			if (v.Status == models.StatusDone) != done {
				continue
			}
			if done {
				b.Text("✅ ")
			} else {
				b.Text("⏳ ")
			}
			b.Bold(v.Item.Label())
			if times := clockList(v); times != "" {
				b.Text(" (").Text(times).Text(")")
			}
			b.Line()
		}
	}
	return b.Build()
}

// DraftMessage shows a drafted medication or the model's follow-up question.
func DraftMessage(d *ai.MedicationDraft) format.Message {
	var b format.Builder
	if d.NeedMoreInfo && d.FollowUpPrompt != "" {
		b.Text("🤔 ").Text(d.FollowUpPrompt)
		return b.Build()
	}
	b.Text("💊 ").Bold(d.Title)
	if d.Dosage != "" {
		b.Text(" ").Text(d.Dosage)
	}
	b.Line().Text(recurrence.Describe(d.Recurrence.Rule))
	if d.QuantityRemaining != nil {
		b.Line().Text("Quantidade: ").Text(strconv.Itoa(*d.QuantityRemaining))
	}
	b.Line().Line().Italic("Confirme no aplicativo para salvar.")
	return b.Build()
}

func clockList(v care.ItemView) string {
	parts := make([]string, 0, len(v.Occurrences))
	for _, t := range v.Occurrences {
		parts = append(parts, t.Format(recurrence.ClockFormat))
	}
	return strings.Join(parts, ", ")
}

