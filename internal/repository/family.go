package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/database"
	"github.com/hray3182/CareMind/internal/models"
)

type FamilyRepository struct {
	db *database.DB
}

func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// Link is idempotent; linking an existing pair returns the original row.
func (r *FamilyRepository) Link(ctx context.Context, familiarID, elderlyID uuid.UUID) (*models.FamilyLink, error) {
	link := &models.FamilyLink{}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO family_links (familiar_id, idoso_id) VALUES ($1, $2)
		 ON CONFLICT (familiar_id, idoso_id) DO UPDATE SET familiar_id = EXCLUDED.familiar_id
		 RETURNING familiar_id, idoso_id, created_at`,
		familiarID, elderlyID,
	).Scan(&link.FamiliarID, &link.ElderlyID, &link.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return link, nil
}

func (r *FamilyRepository) Unlink(ctx context.Context, familiarID, elderlyID uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM family_links WHERE familiar_id = $1 AND idoso_id = $2`,
		familiarID, elderlyID,
	)
	return err
}

func (r *FamilyRepository) Exists(ctx context.Context, familiarID, elderlyID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM family_links WHERE familiar_id = $1 AND idoso_id = $2)`,
		familiarID, elderlyID,
	).Scan(&exists)
	return exists, err
}

// FamiliarsOf returns the profiles linked as familiars of elderlyID.
func (r *FamilyRepository) FamiliarsOf(ctx context.Context, elderlyID uuid.UUID) ([]*models.Profile, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT p.id, p.nome, p.tipo, p.telegram_chat_id, p.created_at
		 FROM family_links fl JOIN profiles p ON p.id = fl.familiar_id
		 WHERE fl.idoso_id = $1 ORDER BY fl.created_at ASC`,
		elderlyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p := &models.Profile{}
		var role string
		if err := rows.Scan(&p.ID, &p.Name, &role, &p.TelegramChatID, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Role = models.Role(role)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
