package care

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/hray3182/CareMind/internal/recurrence"
)

// maxScanDays bounds the forward search for the next occurrence.
const maxScanDays = 400

// ItemView is an item as seen on one calendar day.
type ItemView struct {
	Kind           models.ItemKind      `json:"tipo_item"`
	Item           models.ScheduledItem `json:"item"`
	Due            bool                 `json:"devido"`
	Status         models.Status        `json:"status"`
	Schedule       string               `json:"descricao_recorrencia"`
	Occurrences    []time.Time          `json:"horarios_do_dia"`
	NextOccurrence *time.Time           `json:"proxima_ocorrencia,omitempty"`

	// RRule carries the schedule as RFC 5545 lines for calendar clients.
	RRule []string `json:"rrule,omitempty"`
}

// Items lists every item of kind owned by ownerID with its state on the day
// containing ref. An empty kind lists both kinds.
func (s *Service) Items(ctx context.Context, ownerID uuid.UUID, kind models.ItemKind, ref time.Time) ([]ItemView, error) {
	items, err := s.ownerItems(ctx, ownerID, kind)
	if err != nil {
		return nil, err
	}
	ref = ref.In(s.loc)

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		if s.skipInvalid(item, "items") {
			continue
		}
		v, err := s.view(item, ref)
		if err != nil {
			s.log.Warn("skipping item", "item_id", item.ItemID(), "error", err)
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

// DueOn lists the owner's items due on the day containing ref.
func (s *Service) DueOn(ctx context.Context, ownerID uuid.UUID, ref time.Time) ([]ItemView, error) {
	all, err := s.Items(ctx, ownerID, "", ref)
	if err != nil {
		return nil, err
	}
	due := all[:0]
	for _, v := range all {
		if v.Due {
			due = append(due, v)
		}
	}
	return due, nil
}

func (s *Service) view(item models.ScheduledItem, ref time.Time) (ItemView, error) {
	v := ItemView{
		Kind:        item.Kind(),
		Item:        item,
		Status:      models.StatusPending,
		Schedule:    recurrence.Describe(item.Rule()),
		Occurrences: []time.Time{},
	}
	anchor := item.Anchor().In(s.loc)

	rule := item.Rule()
	if rule == nil {
		// One-off items stay listed from creation until deleted and never
		// reset.
		v.Due = !recurrence.StartOfDay(ref).Before(recurrence.StartOfDay(anchor))
		if item.Completion() != nil {
			v.Status = models.StatusDone
		}
		return v, nil
	}

	due, err := recurrence.IsDueOn(rule, anchor, ref)
	if err != nil {
		return ItemView{}, err
	}
	v.Due = due

	done, err := completedFor(rule, item.Completion(), ref)
	if err != nil {
		return ItemView{}, err
	}
	if done {
		v.Status = models.StatusDone
	}

	if due {
		occ, err := recurrence.OccurrencesOn(rule, anchor, ref)
		if err != nil {
			return ItemView{}, err
		}
		v.Occurrences = occ
	}

	next, err := s.nextOccurrence(item, ref)
	if err != nil {
		return ItemView{}, err
	}
	v.NextOccurrence = next

	if v.RRule, err = recurrence.RRuleStrings(rule, anchor); err != nil {
		return ItemView{}, err
	}
	return v, nil
}

// completedFor derives whether a recurring item counts as done on ref's day.
// A completion the reset sweep would clear no longer counts, and weekly items
// only count when completed on that same day since the sweep never resets
// them.
func completedFor(rule recurrence.Rule, completion *time.Time, ref time.Time) (bool, error) {
	if completion == nil {
		return false, nil
	}
	endOfDay := recurrence.StartOfDay(ref).AddDate(0, 0, 1)
	if !completion.Before(endOfDay) {
		return false, nil
	}
	if _, weekly := rule.(recurrence.Weekly); weekly {
		return recurrence.SameDay(ref, *completion), nil
	}
	reset, err := recurrence.ShouldReset(rule, completion, ref)
	if err != nil {
		return false, err
	}
	return !reset, nil
}

// nextOccurrence is the first occurrence strictly after ref. For interval
// rules that were completed it counts from the completion instead, since the
// next dose is timed from the last one taken.
func (s *Service) nextOccurrence(item models.ScheduledItem, ref time.Time) (*time.Time, error) {
	rule := item.Rule()
	if _, ok := rule.(recurrence.Interval); ok && item.Completion() != nil {
		next, err := recurrence.NextOccurrence(rule, item.Completion().In(s.loc))
		if err != nil {
			return nil, err
		}
		return &next, nil
	}

	anchor := item.Anchor().In(s.loc)
	day := recurrence.StartOfDay(ref)
	for i := 0; i < maxScanDays; i++ {
		occ, err := recurrence.OccurrencesOn(rule, anchor, day)
		if err != nil {
			return nil, err
		}
		for _, t := range occ {
			if t.After(ref) {
				return &t, nil
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return nil, nil
}
