package care

import (
	"context"
	"time"

	"github.com/hray3182/CareMind/internal/events"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/hray3182/CareMind/internal/recurrence"
)

type MonitorSummary struct {
	Missed        int       `json:"atrasados"`
	Notifications int       `json:"notificacoes_enviadas"`
	Timestamp     time.Time `json:"timestamp"`
}

// Monitor reports occurrences from today that passed their grace period
// without a completion. Each occurrence is reported once; last_notified_at
// records it.
func (s *Service) Monitor(ctx context.Context, now time.Time) (MonitorSummary, error) {
	now = now.In(s.loc)
	summary := MonitorSummary{Timestamp: now}

	items, err := s.recurringItems(ctx)
	if err != nil {
		return summary, err
	}

	for _, item := range items {
		if s.skipInvalid(item, "monitor") {
			continue
		}
		due, missed, err := s.missedOccurrence(item, now)
		if err != nil {
			s.log.Warn("skipping item with invalid recurrence", "op", "monitor", "item_id", item.ItemID(), "error", err)
			continue
		}
		if !missed {
			continue
		}
		summary.Missed++
		summary.Notifications += s.notifyMissed(ctx, item, due)

		switch item.Kind() {
		case models.KindMedication:
			err = s.medications.SetLastNotifiedAt(ctx, item.ItemID(), now)
		case models.KindRoutine:
			err = s.routines.SetLastNotifiedAt(ctx, item.ItemID(), now)
		}
		if err != nil {
			s.log.Error("failed to stamp notification", "item_id", item.ItemID(), "error", err)
		}
		s.publish(ctx, events.For(events.ItemMissed, item, due))
	}

	if summary.Missed > 0 {
		s.log.Info("missed items reported", "missed", summary.Missed, "notifications", summary.Notifications)
	}
	return summary, nil
}

// missedOccurrence finds the latest occurrence today whose grace period has
// run out and tells whether it is still unconfirmed and unreported.
func (s *Service) missedOccurrence(item models.ScheduledItem, now time.Time) (time.Time, bool, error) {
	occurrences, err := recurrence.OccurrencesOn(item.Rule(), item.Anchor().In(s.loc), now)
	if err != nil {
		return time.Time{}, false, err
	}

	var due time.Time
	found := false
	for _, occ := range occurrences {
		if occ.Add(s.grace).After(now) {
			break
		}
		due = occ
		found = true
	}
	if !found {
		return time.Time{}, false, nil
	}

	// A completion shortly before the occurrence counts toward it.
	if c := item.Completion(); c != nil && c.After(due.Add(-s.grace)) {
		return due, false, nil
	}
	if n := item.LastNotified(); n != nil && !n.Before(due) {
		return due, false, nil
	}
	return due, true, nil
}

// notifyMissed tells the owner and every linked familiar. It returns how many
// notifications went out.
func (s *Service) notifyMissed(ctx context.Context, item models.ScheduledItem, due time.Time) int {
	if s.notifier == nil {
		return 0
	}

	var recipients []*models.Profile
	if s.profiles != nil {
		owner, err := s.profiles.GetByID(ctx, item.Owner())
		if err != nil {
			s.log.Warn("failed to load owner profile", "owner_id", item.Owner(), "error", err)
		} else {
			recipients = append(recipients, owner)
		}
	}
	if s.family != nil {
		familiars, err := s.family.FamiliarsOf(ctx, item.Owner())
		if err != nil {
			s.log.Warn("failed to load familiars", "owner_id", item.Owner(), "error", err)
		}
		recipients = append(recipients, familiars...)
	}

	sent := 0
	for _, to := range recipients {
		if err := s.notifier.NotifyMissed(ctx, to, item, due); err != nil {
			s.log.Warn("failed to notify", "profile_id", to.ID, "item_id", item.ItemID(), "error", err)
			continue
		}
		sent++
	}
	return sent
}
