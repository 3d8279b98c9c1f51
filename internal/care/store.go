package care

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/models"
)

type MedicationStore interface {
	Create(ctx context.Context, m *models.Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Medication, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Medication, error)
	ListRecurring(ctx context.Context) ([]*models.Medication, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateCompletion(ctx context.Context, id uuid.UUID, at *time.Time) error
	ResetCompletion(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error)
	// MarkTaken sets the completion and decrements stock atomically.
	MarkTaken(ctx context.Context, id uuid.UUID, at time.Time) (int, error)
	SetLastNotifiedAt(ctx context.Context, id uuid.UUID, at time.Time) error
}

type RoutineStore interface {
	Create(ctx context.Context, r *models.Routine) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Routine, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Routine, error)
	ListRecurring(ctx context.Context) ([]*models.Routine, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateCompletion(ctx context.Context, id uuid.UUID, at *time.Time) error
	ResetCompletion(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error)
	SetLastNotifiedAt(ctx context.Context, id uuid.UUID, at time.Time) error
}

type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type FamilyStore interface {
	FamiliarsOf(ctx context.Context, elderlyID uuid.UUID) ([]*models.Profile, error)
}

// Notifier tells a profile that an item's occurrence went unconfirmed.
type Notifier interface {
	NotifyMissed(ctx context.Context, to *models.Profile, item models.ScheduledItem, due time.Time) error
}
