package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/recurrence"
)

type Routine struct {
	ID             uuid.UUID       `json:"id"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	Title          string          `json:"titulo"`
	Description    string          `json:"descricao"`
	Recurrence     recurrence.JSON `json:"recorrencia"`
	CompletedAt    *time.Time      `json:"completed_at"`
	LastNotifiedAt *time.Time      `json:"last_notified_at"`
	CreatedAt      time.Time       `json:"created_at"`

	// RuleErr is set when the stored recurrence could not be decoded.
	RuleErr error `json:"-"`
}

// IsRecurring returns true if this routine has a recurrence rule
func (r *Routine) IsRecurring() bool {
	return r.Recurrence.Rule != nil
}

func (r *Routine) ItemID() uuid.UUID        { return r.ID }
func (r *Routine) Owner() uuid.UUID         { return r.OwnerID }
func (r *Routine) Kind() ItemKind           { return KindRoutine }
func (r *Routine) Label() string            { return r.Title }
func (r *Routine) Rule() recurrence.Rule    { return r.Recurrence.Rule }
func (r *Routine) Anchor() time.Time        { return r.CreatedAt }
func (r *Routine) Completion() *time.Time   { return r.CompletedAt }
func (r *Routine) LastNotified() *time.Time { return r.LastNotifiedAt }
func (r *Routine) RuleError() error         { return r.RuleErr }
