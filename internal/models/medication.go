package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/recurrence"
)

type Medication struct {
	ID                uuid.UUID       `json:"id"`
	OwnerID           uuid.UUID       `json:"owner_id"`
	Title             string          `json:"titulo"`
	Dosage            string          `json:"dosagem"`
	Recurrence        recurrence.JSON `json:"recorrencia"`
	QuantityRemaining int             `json:"quantidade_restante"`
	LastTakenAt       *time.Time      `json:"last_taken_at"`
	LastNotifiedAt    *time.Time      `json:"last_notified_at"`
	CreatedAt         time.Time       `json:"created_at"`

	// RuleErr is set when the stored recurrence could not be decoded.
	RuleErr error `json:"-"`
}

// IsRecurring returns true if this medication has a recurrence rule
func (m *Medication) IsRecurring() bool {
	return m.Recurrence.Rule != nil
}

func (m *Medication) ItemID() uuid.UUID        { return m.ID }
func (m *Medication) Owner() uuid.UUID         { return m.OwnerID }
func (m *Medication) Kind() ItemKind           { return KindMedication }
func (m *Medication) Label() string            { return m.Title }
func (m *Medication) Rule() recurrence.Rule    { return m.Recurrence.Rule }
func (m *Medication) Anchor() time.Time        { return m.CreatedAt }
func (m *Medication) Completion() *time.Time   { return m.LastTakenAt }
func (m *Medication) LastNotified() *time.Time { return m.LastNotifiedAt }
func (m *Medication) RuleError() error         { return m.RuleErr }
