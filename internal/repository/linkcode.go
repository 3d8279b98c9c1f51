package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hray3182/CareMind/internal/database"
	"github.com/hray3182/CareMind/internal/linkcode"
	"github.com/jackc/pgx/v5"
)

type LinkCodeRepository struct {
	db *database.DB
}

func NewLinkCodeRepository(db *database.DB) *LinkCodeRepository {
	return &LinkCodeRepository{db: db}
}

func (r *LinkCodeRepository) Save(ctx context.Context, rec *linkcode.Record) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO link_codes (code_hash, purpose, profile_id, expires_at) VALUES ($1, $2, $3, $4)`,
		rec.Hash, string(rec.Purpose), rec.ProfileID, rec.ExpiresAt,
	)
	return notFound(err)
}

// Consume marks the code used in the same statement that checks it, so two
// redemptions of one code cannot both succeed.
func (r *LinkCodeRepository) Consume(ctx context.Context, hash string, purpose linkcode.Purpose, now time.Time) (uuid.UUID, error) {
	var profileID uuid.UUID
	err := r.db.Pool.QueryRow(ctx,
		`UPDATE link_codes SET used_at = $3
		 WHERE code_hash = $1 AND purpose = $2 AND used_at IS NULL AND expires_at > $3
		 RETURNING profile_id`,
		hash, string(purpose), now,
	).Scan(&profileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, linkcode.ErrInvalidCode
	}
	if err != nil {
		return uuid.Nil, err
	}
	return profileID, nil
}

func (r *LinkCodeRepository) DeleteExpired(ctx context.Context, before time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM link_codes WHERE expires_at <= $1`, before)
	return err
}
