package care

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/hray3182/CareMind/internal/recurrence"
)

// MaxAgendaWindow caps the span of a single agenda request.
const MaxAgendaWindow = 62 * 24 * time.Hour

type AgendaEntry struct {
	Kind   models.ItemKind `json:"tipo_item"`
	ItemID uuid.UUID       `json:"item_id"`
	Title  string          `json:"titulo"`
	At     time.Time       `json:"horario"`
}

// Agenda projects the owner's recurring items onto [from, to].
func (s *Service) Agenda(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]AgendaEntry, error) {
	if to.Before(from) {
		return nil, invalidField("to", "o fim deve ser depois do início")
	}
	if to.Sub(from) > MaxAgendaWindow {
		return nil, invalidField("to", "o período máximo é de 62 dias")
	}

	items, err := s.ownerItems(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}
	from, to = from.In(s.loc), to.In(s.loc)

	entries := []AgendaEntry{}
	for _, item := range items {
		if item.Rule() == nil || s.skipInvalid(item, "agenda") {
			continue
		}
		times, err := recurrence.Between(item.Rule(), item.Anchor().In(s.loc), from, to)
		if err != nil {
			s.log.Warn("skipping item", "op", "agenda", "item_id", item.ItemID(), "error", err)
			continue
		}
		for _, at := range times {
			entries = append(entries, AgendaEntry{
				Kind:   item.Kind(),
				ItemID: item.ItemID(),
				Title:  item.Label(),
				At:     at,
			})
		}
	}
	slices.SortStableFunc(entries, func(a, b AgendaEntry) int { return a.At.Compare(b.At) })
	return entries, nil
}
