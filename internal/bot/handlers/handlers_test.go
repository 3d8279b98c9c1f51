package handlers

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/hray3182/CareMind/internal/ai"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/care/caretest"
	"github.com/hray3182/CareMind/internal/linkcode"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/hray3182/CareMind/internal/recurrence"
)

var brt = time.FixedZone("BRT", -3*60*60)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) sentTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) last(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("expected a reply")
	}
	return f.sent[len(f.sent)-1].Text
}

type fakeProfiles struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.Profile
}

func (f *fakeProfiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, care.ErrNotFound
}

func (f *fakeProfiles) GetByTelegramChatID(_ context.Context, chatID int64) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.TelegramChatID != nil && *p.TelegramChatID == chatID {
			return p, nil
		}
	}
	return nil, care.ErrNotFound
}

func (f *fakeProfiles) SetTelegramChatID(_ context.Context, id uuid.UUID, chatID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return care.ErrNotFound
	}
	p.TelegramChatID = &chatID
	return nil
}

type fakeDrafter struct {
	draft *ai.MedicationDraft
}

func (f fakeDrafter) ParseMedication(context.Context, string) (*ai.MedicationDraft, error) {
	return f.draft, nil
}

type fixture struct {
	h        *Handlers
	sender   *fakeSender
	profiles *fakeProfiles
	codes    *linkcode.Issuer
	meds     *caretest.Medications
	owner    *models.Profile
	med      *models.Medication
}

func newFixture(drafter Drafter) *fixture {
	owner := &models.Profile{ID: uuid.New(), Name: "Dona Maria", Role: models.RoleElderly}
	med := &models.Medication{
		OwnerID:           owner.ID,
		Title:             "Losartana",
		Recurrence:        recurrence.JSON{Rule: recurrence.Daily{Times: []recurrence.Clock{recurrence.MustClock("08:00"), recurrence.MustClock("20:00")}}},
		QuantityRemaining: 10,
		CreatedAt:         time.Date(2024, 1, 1, 7, 0, 0, 0, brt),
	}
	meds := caretest.NewMedications(med)
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, brt)
	svc := care.NewService(care.Deps{
		Medications: meds,
		Routines:    caretest.NewRoutines(),
		Location:    brt,
		Now:         func() time.Time { return now },
	})
	sender := &fakeSender{}
	profiles := &fakeProfiles{byID: map[uuid.UUID]*models.Profile{owner.ID: owner}}
	codes := linkcode.NewIssuer(linkcode.NewMemoryStore(), 15*time.Minute, func() time.Time { return now })
	return &fixture{
		h:        New(sender, profiles, codes, svc, drafter, nil),
		sender:   sender,
		profiles: profiles,
		codes:    codes,
		meds:     meds,
		owner:    owner,
		med:      med,
	}
}

func command(chatID int64, text string) *tgbotapi.Message {
	name := strings.SplitN(text, " ", 2)[0]
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func (f *fixture) link(chatID int64) {
	f.owner.TelegramChatID = &chatID
}

func (f *fixture) issue(t *testing.T, profileID uuid.UUID) string {
	t.Helper()
	code, err := f.codes.Issue(context.Background(), linkcode.PurposeTelegram, profileID)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	return code.Value
}

func TestStart_LinksChat(t *testing.T) {
	f := newFixture(nil)
	code := f.issue(t, f.owner.ID)
	f.h.HandleCommand(context.Background(), command(42, "/start "+code))

	if f.owner.TelegramChatID == nil || *f.owner.TelegramChatID != 42 {
		t.Fatalf("expected chat 42 to be linked, got %v", f.owner.TelegramChatID)
	}
	if reply := f.sender.last(t); !strings.Contains(reply, "Dona Maria") {
		t.Errorf("unexpected reply %q", reply)
	}

	f.h.HandleCommand(context.Background(), command(43, "/start "+code))
	if reply := f.sender.last(t); !strings.Contains(reply, "Código inválido") {
		t.Errorf("unexpected reply for a used code %q", reply)
	}

	f.h.HandleCommand(context.Background(), command(43, "/start "+f.issue(t, uuid.New())))
	if reply := f.sender.last(t); reply != "Perfil não encontrado." {
		t.Errorf("unexpected reply for unknown profile %q", reply)
	}

	f.h.HandleCommand(context.Background(), command(43, "/start abc"))
	if reply := f.sender.last(t); !strings.Contains(reply, "Código inválido") {
		t.Errorf("unexpected reply for bad code %q", reply)
	}
}

func TestStart_ProfileIDDoesNotBind(t *testing.T) {
	f := newFixture(nil)
	f.link(42)

	f.h.HandleCommand(context.Background(), command(999, "/start "+f.owner.ID.String()))
	if reply := f.sender.last(t); !strings.Contains(reply, "Código inválido") {
		t.Errorf("unexpected reply %q", reply)
	}
	if *f.owner.TelegramChatID != 42 {
		t.Fatalf("owner chat = %d, want 42", *f.owner.TelegramChatID)
	}

	f.h.HandleCommand(context.Background(), command(999, "/tomei Losartana"))
	if reply := f.sender.last(t); !strings.Contains(reply, "não está vinculado") {
		t.Errorf("unexpected reply %q", reply)
	}
	saved := f.meds.Get(f.med.ID)
	if saved.LastTakenAt != nil || saved.QuantityRemaining != 10 {
		t.Errorf("medication changed by an unlinked chat: %+v", saved)
	}
}

func TestStart_RebindTellsPreviousChat(t *testing.T) {
	f := newFixture(nil)
	f.link(42)

	f.h.HandleCommand(context.Background(), command(50, "/start "+f.issue(t, f.owner.ID)))
	if *f.owner.TelegramChatID != 50 {
		t.Fatalf("owner chat = %d, want 50", *f.owner.TelegramChatID)
	}
	notices := f.sender.sentTo(42)
	if len(notices) != 1 || !strings.Contains(notices[0], "outro chat") {
		t.Errorf("previous chat got %v", notices)
	}
}

func TestCommands_RequireLinkedChat(t *testing.T) {
	f := newFixture(nil)
	for _, text := range []string{"/hoje", "/tomei Losartana", "/feito Caminhada"} {
		f.h.HandleCommand(context.Background(), command(7, text))
		if reply := f.sender.last(t); !strings.Contains(reply, "não está vinculado") {
			t.Errorf("%s: unexpected reply %q", text, reply)
		}
	}
}

func TestToday(t *testing.T) {
	f := newFixture(nil)
	f.link(42)

	f.h.HandleCommand(context.Background(), command(42, "/hoje"))
	reply := f.sender.last(t)
	for _, part := range []string{"Hoje", "⏳ Losartana", "08:00, 20:00"} {
		if !strings.Contains(reply, part) {
			t.Errorf("reply %q missing %q", reply, part)
		}
	}
}

func TestTomei(t *testing.T) {
	f := newFixture(nil)
	f.link(42)

	f.h.HandleCommand(context.Background(), command(42, "/tomei losartana"))
	reply := f.sender.last(t)
	if !strings.Contains(reply, "Losartana registrado às 09:00") || !strings.Contains(reply, "Restam 9") {
		t.Errorf("unexpected reply %q", reply)
	}
	if f.meds.Get(f.med.ID).LastTakenAt == nil {
		t.Error("expected the dose to be recorded")
	}

	f.h.HandleCommand(context.Background(), command(42, "/tomei Insulina"))
	if reply := f.sender.last(t); !strings.Contains(reply, "Não encontrei") {
		t.Errorf("unexpected reply for unknown medication %q", reply)
	}

	f.h.HandleCommand(context.Background(), command(42, "/tomei"))
	if reply := f.sender.last(t); !strings.Contains(reply, "Uso: /tomei") {
		t.Errorf("unexpected usage reply %q", reply)
	}
}

func TestHandleMessage_Draft(t *testing.T) {
	qty := 30
	f := newFixture(fakeDrafter{draft: &ai.MedicationDraft{
		Title:             "Metformina",
		Dosage:            "850mg",
		QuantityRemaining: &qty,
		Recurrence:        recurrence.JSON{Rule: recurrence.Interval{Hours: 12}},
	}})
	f.link(42)

	f.h.HandleMessage(context.Background(), &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}, Text: "metformina 850 de 12 em 12 horas"})
	reply := f.sender.last(t)
	for _, part := range []string{"Metformina 850mg", "A cada 12 horas", "Quantidade: 30", "Confirme no aplicativo"} {
		if !strings.Contains(reply, part) {
			t.Errorf("reply %q missing %q", reply, part)
		}
	}
}

func TestDraftMessage_FollowUp(t *testing.T) {
	msg := DraftMessage(&ai.MedicationDraft{NeedMoreInfo: true, FollowUpPrompt: "Em quais horários?"})
	if msg.Text != "🤔 Em quais horários?" {
		t.Errorf("unexpected text %q", msg.Text)
	}
}

func TestTodayMessage_PendingFirst(t *testing.T) {
	done := &models.Routine{Title: "Caminhada"}
	pending := &models.Routine{Title: "Alongamento"}
	msg := TodayMessage([]care.ItemView{
		{Item: done, Status: models.StatusDone},
		{Item: pending, Status: models.StatusPending},
	})
	if strings.Index(msg.Text, "Alongamento") > strings.Index(msg.Text, "Caminhada") {
		t.Errorf("expected pending items first in %q", msg.Text)
	}
	if len(msg.Entities) == 0 {
		t.Error("expected bold entities")
	}

	if msg := TodayMessage(nil); !strings.Contains(msg.Text, "Nada programado") {
		t.Errorf("unexpected empty message %q", msg.Text)
	}
}
