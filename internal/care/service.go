// Package care applies the recurrence engine to stored medications and
// routines: completion toggles, derived daily status, the reset sweep and the
// missed-dose monitor.
package care

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/events"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/hray3182/CareMind/internal/recurrence"
)

const DefaultGrace = 30 * time.Minute

type Deps struct {
	Medications MedicationStore
	Routines    RoutineStore
	Profiles    ProfileStore
	Family      FamilyStore
	Events      events.Publisher
	Notifier    Notifier
	Logger      *logger.Logger
	// Location decides calendar days. Defaults to time.Local.
	Location *time.Location
	// Grace is how long after an occurrence the monitor waits before
	// reporting it missed.
	Grace time.Duration
	Now   func() time.Time
}

type Service struct {
	medications MedicationStore
	routines    RoutineStore
	profiles    ProfileStore
	family      FamilyStore
	events      events.Publisher
	notifier    Notifier
	log         *logger.Logger
	loc         *time.Location
	grace       time.Duration
	now         func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		medications: d.Medications,
		routines:    d.Routines,
		profiles:    d.Profiles,
		family:      d.Family,
		events:      d.Events,
		notifier:    d.Notifier,
		log:         d.Logger,
		loc:         d.Location,
		grace:       d.Grace,
		now:         d.Now,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	s.log = s.log.With("service", "CareService")
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.grace <= 0 {
		s.grace = DefaultGrace
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Now is the current time in the service's location.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) CreateMedication(ctx context.Context, m *models.Medication) error {
	m.Title = strings.TrimSpace(m.Title)
	m.Dosage = strings.TrimSpace(m.Dosage)
	if m.OwnerID == uuid.Nil {
		return invalidField("owner_id", "perfil obrigatório")
	}
	if m.Title == "" {
		return invalidField("titulo", "informe o nome do medicamento")
	}
	if m.QuantityRemaining < 0 {
		return invalidField("quantidade_restante", "a quantidade não pode ser negativa")
	}
	if err := validateRule(m.Recurrence.Rule); err != nil {
		return err
	}
	m.LastTakenAt = nil
	m.LastNotifiedAt = nil
	if err := s.medications.Create(ctx, m); err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}
	return nil
}

func (s *Service) CreateRoutine(ctx context.Context, r *models.Routine) error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	if r.OwnerID == uuid.Nil {
		return invalidField("owner_id", "perfil obrigatório")
	}
	if r.Title == "" {
		return invalidField("titulo", "informe o nome da rotina")
	}
	if err := validateRule(r.Recurrence.Rule); err != nil {
		return err
	}
	r.CompletedAt = nil
	r.LastNotifiedAt = nil
	if err := s.routines.Create(ctx, r); err != nil {
		return fmt.Errorf("failed to create routine: %w", err)
	}
	return nil
}

func validateRule(rule recurrence.Rule) error {
	if rule == nil {
		return nil
	}
	if err := recurrence.Validate(rule); err != nil {
		return invalidField("recorrencia", err.Error())
	}
	return nil
}

// Item loads a medication or routine by kind.
func (s *Service) Item(ctx context.Context, kind models.ItemKind, id uuid.UUID) (models.ScheduledItem, error) {
	switch kind {
	case models.KindMedication:
		m, err := s.medications.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return m, nil
	case models.KindRoutine:
		r, err := s.routines.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

func (s *Service) Delete(ctx context.Context, kind models.ItemKind, id uuid.UUID) error {
	switch kind {
	case models.KindMedication:
		return s.medications.Delete(ctx, id)
	case models.KindRoutine:
		return s.routines.Delete(ctx, id)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

// MarkDone records a completion at at. Confirming a medication also uses up
// one unit of its stock, clamped at zero.
func (s *Service) MarkDone(ctx context.Context, kind models.ItemKind, id uuid.UUID, at time.Time) (models.ScheduledItem, error) {
	item, err := s.Item(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	switch it := item.(type) {
	case *models.Medication:
		remaining, err := s.medications.MarkTaken(ctx, id, at)
		if err != nil {
			return nil, err
		}
		it.LastTakenAt = &at
		it.QuantityRemaining = remaining
	case *models.Routine:
		if err := s.routines.UpdateCompletion(ctx, id, &at); err != nil {
			return nil, fmt.Errorf("failed to mark routine done: %w", err)
		}
		it.CompletedAt = &at
	}

	s.publish(ctx, events.For(events.ItemCompleted, item, at))
	return item, nil
}

// MarkUndone clears the completion without touching stock.
func (s *Service) MarkUndone(ctx context.Context, kind models.ItemKind, id uuid.UUID) (models.ScheduledItem, error) {
	item, err := s.Item(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	switch it := item.(type) {
	case *models.Medication:
		if err := s.medications.UpdateCompletion(ctx, id, nil); err != nil {
			return nil, fmt.Errorf("failed to clear medication: %w", err)
		}
		it.LastTakenAt = nil
	case *models.Routine:
		if err := s.routines.UpdateCompletion(ctx, id, nil); err != nil {
			return nil, fmt.Errorf("failed to clear routine: %w", err)
		}
		it.CompletedAt = nil
	}

	s.publish(ctx, events.For(events.ItemReset, item, s.Now()))
	return item, nil
}

// CompleteByTitle marks the owner's item whose title matches, ignoring case
// and surrounding spaces. Medications are searched before routines unless
// kind narrows it.
func (s *Service) CompleteByTitle(ctx context.Context, ownerID uuid.UUID, kind models.ItemKind, title string) (models.ScheduledItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalidField("titulo", "informe o item")
	}
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	items, err := s.ownerItems(ctx, ownerID, kind)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item.Label()), title) {
			return s.MarkDone(ctx, item.Kind(), item.ItemID(), s.Now())
		}
	}
	return nil, ErrNotFound
}

func (s *Service) ownerItems(ctx context.Context, ownerID uuid.UUID, kind models.ItemKind) ([]models.ScheduledItem, error) {
	var items []models.ScheduledItem
	if kind == "" || kind == models.KindMedication {
		meds, err := s.medications.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to list medications: %w", err)
		}
		for _, m := range meds {
			items = append(items, m)
		}
	}
	if kind == "" || kind == models.KindRoutine {
		routines, err := s.routines.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to list routines: %w", err)
		}
		for _, r := range routines {
			items = append(items, r)
		}
	}
	return items, nil
}

func (s *Service) recurringItems(ctx context.Context) ([]models.ScheduledItem, error) {
	meds, err := s.medications.ListRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring medications: %w", err)
	}
	routines, err := s.routines.ListRecurring(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring routines: %w", err)
	}
	items := make([]models.ScheduledItem, 0, len(meds)+len(routines))
	for _, m := range meds {
		items = append(items, m)
	}
	for _, r := range routines {
		items = append(items, r)
	}
	return items, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("failed to publish event", "type", e.Type, "item_id", e.ItemID, "error", err)
	}
}

func (s *Service) skipInvalid(item models.ScheduledItem, op string) bool {
	if err := item.RuleError(); err != nil {
		s.log.Warn("skipping item with invalid recurrence", "op", op, "kind", item.Kind(), "item_id", item.ItemID(), "error", err)
		return true
	}
	return false
}
