// Package events carries item state changes between the care service and
// anything that reacts to them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/models"
)

type Type string

const (
	ItemCompleted Type = "item.completed"
	ItemReset     Type = "item.reset"
	ItemMissed    Type = "item.missed"
)

type Event struct {
	Type    Type            `json:"type"`
	Kind    models.ItemKind `json:"kind"`
	ItemID  uuid.UUID       `json:"item_id"`
	OwnerID uuid.UUID       `json:"owner_id"`
	Title   string          `json:"title"`
	At      time.Time       `json:"at"`
}

// Publisher is the side the care service needs.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Bus interface {
	Publisher
	// StartForwarder delivers every published event to onEvent until ctx is
	// done.
	StartForwarder(ctx context.Context, onEvent func(Event)) error
	Close() error
}

// For wraps an item into an event of type t.
func For(t Type, item models.ScheduledItem, at time.Time) Event {
	return Event{
		Type:    t,
		Kind:    item.Kind(),
		ItemID:  item.ItemID(),
		OwnerID: item.Owner(),
		Title:   item.Label(),
		At:      at,
	}
}
