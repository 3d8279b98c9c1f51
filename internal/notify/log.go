package notify

import (
	"context"
	"time"

	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/models"
)

// LogOnly stands in for Telegram when no bot token is configured.
type LogOnly struct {
	log *logger.Logger
}

func NewLogOnly(log *logger.Logger) *LogOnly {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogOnly{log: log.With("service", "LogNotifier")}
}

func (l *LogOnly) NotifyMissed(ctx context.Context, to *models.Profile, item models.ScheduledItem, due time.Time) error {
	l.log.Info("missed item", "profile_id", profileID(to), "item_id", item.ItemID(), "title", item.Label(), "due", due)
	return nil
}

func (l *LogOnly) NotifyCompleted(ctx context.Context, to *models.Profile, owner *models.Profile, kind models.ItemKind, title string, at time.Time) error {
	l.log.Info("item completed", "profile_id", profileID(to), "owner_id", profileID(owner), "kind", kind, "title", title, "at", at)
	return nil
}
