// Package caretest provides in-memory stores for exercising the care service
// without a database.
package caretest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/events"
	"github.com/hray3182/CareMind/internal/models"
)

// Medications is an in-memory care.MedicationStore.
type Medications struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.Medication

	// FailMarkTaken, when set, is returned by MarkTaken without writing.
	FailMarkTaken error
}

func NewMedications(ms ...*models.Medication) *Medications {
	s := &Medications{items: map[uuid.UUID]*models.Medication{}}
	for _, m := range ms {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		s.items[m.ID] = m
	}
	return s
}

func (s *Medications) Create(_ context.Context, m *models.Medication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.New()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.items[m.ID] = m
	return nil
}

func (s *Medications) GetByID(_ context.Context, id uuid.UUID) (*models.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.items[id]
	if !ok {
		return nil, care.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Medications) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Medication
	for _, m := range s.items {
		if m.OwnerID == ownerID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Medications) ListRecurring(_ context.Context) ([]*models.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Medication
	for _, m := range s.items {
		if m.IsRecurring() || m.RuleErr != nil {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Medications) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return care.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Medications) UpdateCompletion(_ context.Context, id uuid.UUID, at *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.items[id]
	if !ok {
		return care.ErrNotFound
	}
	m.LastTakenAt = at
	return nil
}

func (s *Medications) ResetCompletion(_ context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.items[id]
	if !ok || m.LastTakenAt == nil || !m.LastTakenAt.Equal(completedAt) {
		return false, nil
	}
	m.LastTakenAt = nil
	return true, nil
}

func (s *Medications) MarkTaken(_ context.Context, id uuid.UUID, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailMarkTaken != nil {
		return 0, s.FailMarkTaken
	}
	m, ok := s.items[id]
	if !ok {
		return 0, care.ErrNotFound
	}
	m.LastTakenAt = &at
	if m.QuantityRemaining > 0 {
		m.QuantityRemaining--
	}
	return m.QuantityRemaining, nil
}

func (s *Medications) SetLastNotifiedAt(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.items[id]; ok {
		m.LastNotifiedAt = &at
	}
	return nil
}

func (s *Medications) Get(id uuid.UUID) *models.Medication {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

// Routines is an in-memory care.RoutineStore.
type Routines struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.Routine
}

func NewRoutines(rs ...*models.Routine) *Routines {
	s := &Routines{items: map[uuid.UUID]*models.Routine{}}
	for _, r := range rs {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		s.items[r.ID] = r
	}
	return s
}

func (s *Routines) Create(_ context.Context, r *models.Routine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.New()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.items[r.ID] = r
	return nil
}

func (s *Routines) GetByID(_ context.Context, id uuid.UUID) (*models.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return nil, care.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Routines) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Routine
	for _, r := range s.items {
		if r.OwnerID == ownerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Routines) ListRecurring(_ context.Context) ([]*models.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Routine
	for _, r := range s.items {
		if r.IsRecurring() || r.RuleErr != nil {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Routines) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return care.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Routines) UpdateCompletion(_ context.Context, id uuid.UUID, at *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return care.ErrNotFound
	}
	r.CompletedAt = at
	return nil
}

func (s *Routines) ResetCompletion(_ context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok || r.CompletedAt == nil || !r.CompletedAt.Equal(completedAt) {
		return false, nil
	}
	r.CompletedAt = nil
	return true, nil
}

func (s *Routines) SetLastNotifiedAt(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.items[id]; ok {
		r.LastNotifiedAt = &at
	}
	return nil
}

func (s *Routines) Get(id uuid.UUID) *models.Routine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

type Profiles map[uuid.UUID]*models.Profile

func (p Profiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	if prof, ok := p[id]; ok {
		return prof, nil
	}
	return nil, care.ErrNotFound
}

type Family map[uuid.UUID][]*models.Profile

func (f Family) FamiliarsOf(_ context.Context, elderlyID uuid.UUID) ([]*models.Profile, error) {
	return f[elderlyID], nil
}

type Notice struct {
	To   uuid.UUID
	Item uuid.UUID
	Due  time.Time
}

// Notifier records every missed-item notice.
type Notifier struct {
	mu   sync.Mutex
	Sent []Notice
}

func (n *Notifier) NotifyMissed(_ context.Context, to *models.Profile, item models.ScheduledItem, due time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notice{To: to.ID, Item: item.ItemID(), Due: due})
	return nil
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	Events []events.Event
}

func (p *Publisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, e)
	return nil
}

func (p *Publisher) Types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.Events))
	for i, e := range p.Events {
		out[i] = e.Type
	}
	return out
}

// Links is an in-memory family link store keyed by (familiar, elderly).
type Links struct {
	mu    sync.Mutex
	pairs map[[2]uuid.UUID]time.Time
}

func NewLinks() *Links {
	return &Links{pairs: map[[2]uuid.UUID]time.Time{}}
}

func (l *Links) Link(_ context.Context, familiarID, elderlyID uuid.UUID) (*models.FamilyLink, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := [2]uuid.UUID{familiarID, elderlyID}
	created, ok := l.pairs[key]
	if !ok {
		created = time.Now()
		l.pairs[key] = created
	}
	return &models.FamilyLink{FamiliarID: familiarID, ElderlyID: elderlyID, CreatedAt: created}, nil
}

func (l *Links) Exists(_ context.Context, familiarID, elderlyID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pairs[[2]uuid.UUID{familiarID, elderlyID}]
	return ok, nil
}

func (l *Links) Unlink(_ context.Context, familiarID, elderlyID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pairs, [2]uuid.UUID{familiarID, elderlyID})
	return nil
}
