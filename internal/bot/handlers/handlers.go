package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/hray3182/CareMind/internal/ai"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/format"
	"github.com/hray3182/CareMind/internal/linkcode"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/models"
)

// Sender is the part of *tgbotapi.BotAPI the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*models.Profile, error)
	SetTelegramChatID(ctx context.Context, id uuid.UUID, chatID int64) error
}

// CodeRedeemer is satisfied by *linkcode.Issuer.
type CodeRedeemer interface {
	Redeem(ctx context.Context, purpose linkcode.Purpose, value string) (uuid.UUID, error)
}

// Drafter is satisfied by *ai.Client.
type Drafter interface {
	ParseMedication(ctx context.Context, text string) (*ai.MedicationDraft, error)
}

type Handlers struct {
	api      Sender
	profiles ProfileStore
	codes    CodeRedeemer
	care     *care.Service
	ai       Drafter
	log      *logger.Logger
}

func New(api Sender, profiles ProfileStore, codes CodeRedeemer, svc *care.Service, drafter Drafter, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handlers{
		api:      api,
		profiles: profiles,
		codes:    codes,
		care:     svc,
		ai:       drafter,
		log:      log.With("component", "BotHandlers"),
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "ajuda", "help":
		h.handleHelp(msg)
	case "hoje":
		h.handleToday(ctx, msg)
	case "tomei":
		h.handleComplete(ctx, msg, models.KindMedication)
	case "feito":
		h.handleComplete(ctx, msg, models.KindRoutine)
	default:
		h.sendMessage(msg.Chat.ID, "Comando desconhecido. Use /ajuda para ver os comandos.")
	}
}

// HandleMessage treats free text as a medication description and replies
// with a draft for the user to confirm in the app.
func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if _, ok := h.linkedProfile(ctx, msg); !ok {
		return
	}
	if h.ai == nil {
		h.sendMessage(msg.Chat.ID, "Use /ajuda para ver os comandos disponíveis.")
		return
	}

	draft, err := h.ai.ParseMedication(ctx, msg.Text)
	if err != nil {
		if !errors.Is(err, ai.ErrDisabled) {
			h.log.Warn("failed to draft medication", "chat_id", msg.Chat.ID, "error", err)
		}
		h.sendMessage(msg.Chat.ID, "Não consegui entender. Tente descrever o medicamento e os horários.")
		return
	}
	h.send(msg.Chat.ID, DraftMessage(draft))
}

func (h *Handlers) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		if p, err := h.profiles.GetByTelegramChatID(ctx, msg.Chat.ID); err == nil {
			h.sendMessage(msg.Chat.ID, "Olá, "+p.Name+"! Este chat já recebe os alertas do CareMind.")
			return
		}
		h.sendMessage(msg.Chat.ID, "👋 Olá! Para receber os alertas, gere um código no aplicativo e envie /start seguido do código.")
		return
	}

	id, err := h.codes.Redeem(ctx, linkcode.PurposeTelegram, arg)
	if err != nil {
		if errors.Is(err, linkcode.ErrInvalidCode) {
			h.sendMessage(msg.Chat.ID, "Código inválido ou expirado. Gere um novo código no aplicativo.")
			return
		}
		h.replyError(msg.Chat.ID, err, "")
		return
	}
	p, err := h.profiles.GetByID(ctx, id)
	if err != nil {
		h.replyError(msg.Chat.ID, err, "Perfil não encontrado.")
		return
	}
	prev := p.TelegramChatID
	if err := h.profiles.SetTelegramChatID(ctx, p.ID, msg.Chat.ID); err != nil {
		h.replyError(msg.Chat.ID, err, "Perfil não encontrado.")
		return
	}
	h.log.Info("telegram chat linked", "profile_id", p.ID, "chat_id", msg.Chat.ID)
	if prev != nil && *prev != msg.Chat.ID {
		h.sendMessage(*prev, "ℹ️ Os alertas de "+p.Name+" passaram a ser enviados para outro chat.")
	}

	var b format.Builder
	b.Text("✅ Olá, ").Bold(p.Name).Text("! Você receberá os alertas do CareMind neste chat.")
	b.Line().Text("Use /ajuda para ver os comandos.")
	h.send(msg.Chat.ID, b.Build())
}

func (h *Handlers) handleHelp(msg *tgbotapi.Message) {
	var b format.Builder
	b.Bold("Comandos").Line()
	b.Text("/hoje - itens de hoje e o que falta").Line()
	b.Text("/tomei <medicamento> - confirmar uma dose").Line()
	b.Text("/feito <rotina> - concluir uma rotina").Line()
	b.Text("/start <código> - vincular este chat ao seu perfil").Line()
	if h.ai != nil {
		b.Line().Italic("Você também pode descrever um medicamento e eu preparo o cadastro.")
	}
	h.send(msg.Chat.ID, b.Build())
}

func (h *Handlers) handleToday(ctx context.Context, msg *tgbotapi.Message) {
	p, ok := h.linkedProfile(ctx, msg)
	if !ok {
		return
	}
	views, err := h.care.DueOn(ctx, p.ID, h.care.Now())
	if err != nil {
		h.replyError(msg.Chat.ID, err, "")
		return
	}
	h.send(msg.Chat.ID, TodayMessage(views))
}

func (h *Handlers) handleComplete(ctx context.Context, msg *tgbotapi.Message, kind models.ItemKind) {
	p, ok := h.linkedProfile(ctx, msg)
	if !ok {
		return
	}
	title := strings.TrimSpace(msg.CommandArguments())
	if title == "" {
		if kind == models.KindMedication {
			h.sendMessage(msg.Chat.ID, "Informe o medicamento\nUso: /tomei <medicamento>")
		} else {
			h.sendMessage(msg.Chat.ID, "Informe a rotina\nUso: /feito <rotina>")
		}
		return
	}

	item, err := h.care.CompleteByTitle(ctx, p.ID, kind, title)
	if err != nil {
		h.replyError(msg.Chat.ID, err, "Não encontrei \""+title+"\". Veja os nomes com /hoje.")
		return
	}

	var b format.Builder
	b.Text("✅ ").Bold(item.Label())
	if kind == models.KindMedication {
		b.Text(" registrado às ")
	} else {
		b.Text(" concluída às ")
	}
	b.Text(h.care.Now().Format("15:04"))
	if m, ok := item.(*models.Medication); ok {
		b.Line().Text("Restam ").Text(strconv.Itoa(m.QuantityRemaining)).Text(" unidades.")
	}
	h.send(msg.Chat.ID, b.Build())
}

// linkedProfile loads the profile bound to the chat, replying with
// instructions when there is none.
func (h *Handlers) linkedProfile(ctx context.Context, msg *tgbotapi.Message) (*models.Profile, bool) {
	p, err := h.profiles.GetByTelegramChatID(ctx, msg.Chat.ID)
	if err != nil {
		if errors.Is(err, care.ErrNotFound) {
			h.sendMessage(msg.Chat.ID, "Este chat ainda não está vinculado. Gere um código no aplicativo e envie /start <código>.")
		} else {
			h.replyError(msg.Chat.ID, err, "")
		}
		return nil, false
	}
	return p, true
}

func (h *Handlers) replyError(chatID int64, err error, notFound string) {
	if notFound != "" && errors.Is(err, care.ErrNotFound) {
		h.sendMessage(chatID, notFound)
		return
	}
	h.log.Error("bot command failed", "chat_id", chatID, "error", err)
	h.sendMessage(chatID, "Não foi possível concluir a operação. Por favor, tente novamente.")
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	h.send(chatID, format.Message{Text: text})
}

func (h *Handlers) send(chatID int64, m format.Message) {
	if _, err := h.api.Send(format.NewTelegram(chatID, m)); err != nil {
		h.log.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}
