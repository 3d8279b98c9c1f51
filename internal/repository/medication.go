package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/database"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/jackc/pgx/v5"
)

const medicationColumns = `id, owner_id, titulo, dosagem, recorrencia, quantidade_restante, last_taken_at, last_notified_at, created_at`

type MedicationRepository struct {
	db *database.DB
}

func NewMedicationRepository(db *database.DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

func scanMedication(row pgx.Row) (*models.Medication, error) {
	m := &models.Medication{}
	var raw []byte
	if err := row.Scan(&m.ID, &m.OwnerID, &m.Title, &m.Dosage, &raw, &m.QuantityRemaining,
		&m.LastTakenAt, &m.LastNotifiedAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Recurrence, m.RuleErr = decodeRule(raw)
	return m, nil
}

func (r *MedicationRepository) Create(ctx context.Context, m *models.Medication) error {
	raw, err := encodeRule(m.Recurrence.Rule)
	if err != nil {
		return err
	}
	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO medicamentos (owner_id, titulo, dosagem, recorrencia, quantidade_restante)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		m.OwnerID, m.Title, m.Dosage, raw, m.QuantityRemaining,
	).Scan(&m.ID, &m.CreatedAt)
	return notFound(err)
}

func (r *MedicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Medication, error) {
	m, err := scanMedication(r.db.Pool.QueryRow(ctx,
		`SELECT `+medicationColumns+` FROM medicamentos WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (r *MedicationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Medication, error) {
	return r.list(ctx,
		`SELECT `+medicationColumns+` FROM medicamentos WHERE owner_id = $1 ORDER BY created_at ASC`,
		ownerID,
	)
}

// ListRecurring returns every medication with a stored rule, across owners.
func (r *MedicationRepository) ListRecurring(ctx context.Context) ([]*models.Medication, error) {
	return r.list(ctx,
		`SELECT `+medicationColumns+` FROM medicamentos WHERE recorrencia IS NOT NULL ORDER BY created_at ASC`,
	)
}

func (r *MedicationRepository) list(ctx context.Context, query string, args ...any) ([]*models.Medication, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var medications []*models.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		medications = append(medications, m)
	}
	return medications, rows.Err()
}

func (r *MedicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM medicamentos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return care.ErrNotFound
	}
	return nil
}

// UpdateCompletion sets last_taken_at without touching stock; nil marks the
// medication pending.
func (r *MedicationRepository) UpdateCompletion(ctx context.Context, id uuid.UUID, at *time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE medicamentos SET last_taken_at = $1 WHERE id = $2`,
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

// ResetCompletion clears last_taken_at only while it still equals
// completedAt, so a dose taken after the sweep read the row survives.
func (r *MedicationRepository) ResetCompletion(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE medicamentos SET last_taken_at = NULL WHERE id = $1 AND last_taken_at = $2`,
		id, completedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkTaken records a dose at at and uses up one unit of stock, never going
// below zero, in a single statement. It returns the remaining quantity.
func (r *MedicationRepository) MarkTaken(ctx context.Context, id uuid.UUID, at time.Time) (int, error) {
	var remaining int
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE medicamentos SET last_taken_at = $1,
		     quantidade_restante = GREATEST(quantidade_restante - 1, 0)
		 WHERE id = $2
		 RETURNING quantidade_restante`,
		at, id,
	).Scan(&remaining)
	if err != nil {
		return 0, fmt.Errorf("failed to mark medication taken: %w", notFound(err))
	}
	return remaining, nil
}

func (r *MedicationRepository) SetLastNotifiedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE medicamentos SET last_notified_at = $1 WHERE id = $2`,
		at, id,
	)
	return err
}
