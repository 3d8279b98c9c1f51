package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/database"
	"github.com/hray3182/CareMind/internal/models"
)

type ProfileRepository struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts the profile, keeping p.ID when the caller already has one
// from the auth provider.
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO profiles (id, nome, tipo, telegram_chat_id) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET nome = EXCLUDED.nome, tipo = EXCLUDED.tipo,
		     telegram_chat_id = COALESCE(EXCLUDED.telegram_chat_id, profiles.telegram_chat_id)
		 RETURNING created_at`,
		p.ID, p.Name, string(p.Role), p.TelegramChatID,
	).Scan(&p.CreatedAt)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	var role string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, nome, tipo, telegram_chat_id, created_at FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &role, &p.TelegramChatID, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	p.Role = models.Role(role)
	return p, nil
}

// SetTelegramChatID binds a chat to the profile. A chat belongs to at most one
// profile, so any previous owner of chatID is detached first.
func (r *ProfileRepository) SetTelegramChatID(ctx context.Context, id uuid.UUID, chatID int64) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE profiles SET telegram_chat_id = NULL WHERE telegram_chat_id = $1 AND id <> $2`,
		chatID, id,
	); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE profiles SET telegram_chat_id = $1 WHERE id = $2`, chatID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return care.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *ProfileRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*models.Profile, error) {
	p := &models.Profile{}
	var role string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, nome, tipo, telegram_chat_id, created_at FROM profiles WHERE telegram_chat_id = $1`,
		chatID,
	).Scan(&p.ID, &p.Name, &role, &p.TelegramChatID, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	p.Role = models.Role(role)
	return p, nil
}
