package care

import (
	"context"
	"time"

	"github.com/hray3182/CareMind/internal/events"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/hray3182/CareMind/internal/recurrence"
)

type SweepSummary struct {
	MedicationsReset int       `json:"medicamentos_resetados"`
	RoutinesReset    int       `json:"rotinas_resetadas"`
	Timestamp        time.Time `json:"timestamp"`
}

// Sweep returns every recurring item whose completion has expired to
// pending. It only clears completions, so running it twice in a row is
// harmless.
func (s *Service) Sweep(ctx context.Context, now time.Time) (SweepSummary, error) {
	now = now.In(s.loc)
	summary := SweepSummary{Timestamp: now}

	items, err := s.recurringItems(ctx)
	if err != nil {
		return summary, err
	}

	for _, item := range items {
		if s.skipInvalid(item, "sweep") {
			continue
		}
		completion := item.Completion()
		if completion == nil {
			continue
		}
		reset, err := recurrence.ShouldReset(item.Rule(), completion, now)
		if err != nil {
			s.log.Warn("skipping item with invalid recurrence", "op", "sweep", "item_id", item.ItemID(), "error", err)
			continue
		}
		if !reset {
			continue
		}

		var cleared bool
		switch item.Kind() {
		case models.KindMedication:
			cleared, err = s.medications.ResetCompletion(ctx, item.ItemID(), *completion)
		case models.KindRoutine:
			cleared, err = s.routines.ResetCompletion(ctx, item.ItemID(), *completion)
		}
		if err != nil {
			s.log.Error("failed to reset item", "kind", item.Kind(), "item_id", item.ItemID(), "error", err)
			continue
		}
		if !cleared {
			continue
		}

		if item.Kind() == models.KindMedication {
			summary.MedicationsReset++
		} else {
			summary.RoutinesReset++
		}
		s.publish(ctx, events.For(events.ItemReset, item, now))
	}

	s.log.Info("reset sweep finished",
		"medications_reset", summary.MedicationsReset,
		"routines_reset", summary.RoutinesReset,
	)
	return summary, nil
}
