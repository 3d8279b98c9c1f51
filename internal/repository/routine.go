package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/database"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/jackc/pgx/v5"
)

const routineColumns = `id, owner_id, titulo, descricao, recorrencia, completed_at, last_notified_at, created_at`

type RoutineRepository struct {
	db *database.DB
}

func NewRoutineRepository(db *database.DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

func scanRoutine(row pgx.Row) (*models.Routine, error) {
	rt := &models.Routine{}
	var raw []byte
	if err := row.Scan(&rt.ID, &rt.OwnerID, &rt.Title, &rt.Description, &raw,
		&rt.CompletedAt, &rt.LastNotifiedAt, &rt.CreatedAt); err != nil {
		return nil, err
	}
	rt.Recurrence, rt.RuleErr = decodeRule(raw)
	return rt, nil
}

func (r *RoutineRepository) Create(ctx context.Context, rt *models.Routine) error {
	raw, err := encodeRule(rt.Recurrence.Rule)
	if err != nil {
		return err
	}
	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO rotinas (owner_id, titulo, descricao, recorrencia)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		rt.OwnerID, rt.Title, rt.Description, raw,
	).Scan(&rt.ID, &rt.CreatedAt)
	return notFound(err)
}

func (r *RoutineRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Routine, error) {
	rt, err := scanRoutine(r.db.Pool.QueryRow(ctx,
		`SELECT `+routineColumns+` FROM rotinas WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return rt, nil
}

func (r *RoutineRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Routine, error) {
	return r.list(ctx,
		`SELECT `+routineColumns+` FROM rotinas WHERE owner_id = $1 ORDER BY created_at ASC`,
		ownerID,
	)
}

func (r *RoutineRepository) ListRecurring(ctx context.Context) ([]*models.Routine, error) {
	return r.list(ctx,
		`SELECT `+routineColumns+` FROM rotinas WHERE recorrencia IS NOT NULL ORDER BY created_at ASC`,
	)
}

func (r *RoutineRepository) list(ctx context.Context, query string, args ...any) ([]*models.Routine, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routines []*models.Routine
	for rows.Next() {
		rt, err := scanRoutine(rows)
		if err != nil {
			return nil, err
		}
		routines = append(routines, rt)
	}
	return routines, rows.Err()
}

func (r *RoutineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM rotinas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return care.ErrNotFound
	}
	return nil
}

func (r *RoutineRepository) UpdateCompletion(ctx context.Context, id uuid.UUID, at *time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE rotinas SET completed_at = $1 WHERE id = $2`,
		at, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return care.ErrNotFound
	}
	return nil
}

func (r *RoutineRepository) ResetCompletion(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE rotinas SET completed_at = NULL WHERE id = $1 AND completed_at = $2`,
		id, completedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RoutineRepository) SetLastNotifiedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE rotinas SET last_notified_at = $1 WHERE id = $2`,
		at, id,
	)
	return err
}
