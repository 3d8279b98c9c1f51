package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hray3182/CareMind/internal/events"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/models"
)

type CompletionNotifier interface {
	NotifyCompleted(ctx context.Context, to *models.Profile, owner *models.Profile, kind models.ItemKind, title string, at time.Time) error
}

type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type FamiliarLister interface {
	FamiliarsOf(ctx context.Context, elderlyID uuid.UUID) ([]*models.Profile, error)
}

// Forwarder relays completions of elderly profiles' items to their
// familiars.
type Forwarder struct {
	notifier CompletionNotifier
	profiles ProfileReader
	family   FamiliarLister
	log      *logger.Logger
	timeout  time.Duration
}

func NewForwarder(n CompletionNotifier, profiles ProfileReader, family FamiliarLister, log *logger.Logger) *Forwarder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Forwarder{
		notifier: n,
		profiles: profiles,
		family:   family,
		log:      log.With("service", "FamilyForwarder"),
		timeout:  10 * time.Second,
	}
}

// Start subscribes to bus until ctx is done.
func (f *Forwarder) Start(ctx context.Context, bus events.Bus) error {
	return bus.StartForwarder(ctx, func(e events.Event) {
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()
		f.Handle(hctx, e)
	})
}

func (f *Forwarder) Handle(ctx context.Context, e events.Event) {
	if e.Type != events.ItemCompleted {
		return
	}

	owner, err := f.profiles.GetByID(ctx, e.OwnerID)
	if err != nil {
		f.log.Warn("failed to load owner profile", "owner_id", e.OwnerID, "error", err)
		return
	}
	if owner.Role != models.RoleElderly {
		return
	}

	familiars, err := f.family.FamiliarsOf(ctx, owner.ID)
	if err != nil {
		f.log.Warn("failed to load familiars", "owner_id", owner.ID, "error", err)
		return
	}
	for _, to := range familiars {
		if err := f.notifier.NotifyCompleted(ctx, to, owner, e.Kind, e.Title, e.At); err != nil {
			f.log.Warn("failed to notify familiar", "profile_id", to.ID, "error", err)
		}
	}
}
