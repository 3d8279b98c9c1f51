package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/recurrence"
)

// ItemKind distinguishes the two kinds of scheduled items.
type ItemKind string

const (
	KindMedication ItemKind = "medicamento"
	KindRoutine    ItemKind = "rotina"
)

// Valid reports whether k is a known item kind.
func (k ItemKind) Valid() bool {
	return k == KindMedication || k == KindRoutine
}

// ScheduledItem is the part of a medication or routine the recurrence engine
// looks at.
type ScheduledItem interface {
	ItemID() uuid.UUID
	Owner() uuid.UUID
	Kind() ItemKind
	Label() string
	Rule() recurrence.Rule
	// Anchor is the creation time; interval-based rules count from it.
	Anchor() time.Time
	// Completion is when the item was last marked done, nil while pending.
	Completion() *time.Time
	LastNotified() *time.Time
	// RuleError reports a stored rule that failed to decode.
	RuleError() error
}

// Status is the derived state of an item on a given day.
type Status string

const (
	StatusPending Status = "pendente"
	StatusDone    Status = "concluido"
)
