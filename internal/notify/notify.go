// Package notify delivers care alerts to profiles over Telegram.
package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/CareMind/internal/format"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/hray3182/CareMind/internal/recurrence"
)

// Sender is the part of *tgbotapi.BotAPI used here.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	api Sender
	log *logger.Logger
	loc *time.Location
}

func NewTelegram(api Sender, log *logger.Logger, loc *time.Location) *Telegram {
	if log == nil {
		log = logger.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Telegram{api: api, log: log.With("service", "TelegramNotifier"), loc: loc}
}

func (t *Telegram) NotifyMissed(ctx context.Context, to *models.Profile, item models.ScheduledItem, due time.Time) error {
	return t.send(to, MissedMessage(item, due.In(t.loc)))
}

// NotifyCompleted tells a familiar that an elderly profile confirmed an item.
func (t *Telegram) NotifyCompleted(ctx context.Context, to *models.Profile, owner *models.Profile, kind models.ItemKind, title string, at time.Time) error {
	return t.send(to, CompletedMessage(owner, kind, title, at.In(t.loc)))
}

func (t *Telegram) send(to *models.Profile, msg format.Message) error {
	if to == nil || to.TelegramChatID == nil {
		t.log.Debug("profile has no telegram chat", "profile_id", profileID(to))
		return nil
	}
	if _, err := t.api.Send(format.NewTelegram(*to.TelegramChatID, msg)); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// MissedMessage is the alert text for an unconfirmed occurrence.
func MissedMessage(item models.ScheduledItem, due time.Time) format.Message {
	var b format.Builder
	b.Text("⏰ ")
	if item.Kind() == models.KindMedication {
		b.Text("Dose não confirmada: ")
	} else {
		b.Text("Rotina não concluída: ")
	}
	b.Bold(item.Label()).Text(" (previsto para ").Bold(due.Format(recurrence.ClockFormat)).Text(")")
	if m, ok := item.(*models.Medication); ok && m.Dosage != "" {
		b.Line().Text("Dosagem: ").Text(m.Dosage)
	}
	if rule := item.Rule(); rule != nil {
		b.Line().Italic(recurrence.Describe(rule))
	}
	return b.Build()
}

// CompletedMessage is the text a familiar sees when an item is confirmed.
func CompletedMessage(owner *models.Profile, kind models.ItemKind, title string, at time.Time) format.Message {
	var b format.Builder
	b.Text("✅ ").Bold(owner.Name)
	if kind == models.KindMedication {
		b.Text(" tomou ")
	} else {
		b.Text(" concluiu ")
	}
	b.Bold(title).Text(" às ").Text(at.Format(recurrence.ClockFormat))
	return b.Build()
}

func profileID(p *models.Profile) string {
	if p == nil {
		return ""
	}
	return p.ID.String()
}
