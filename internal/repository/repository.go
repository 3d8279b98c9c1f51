package repository

import (
	"errors"

	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/recurrence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const foreignKeyViolation = "23503"

// notFound maps pgx.ErrNoRows and foreign key violations to
// care.ErrNotFound and passes other errors through unchanged.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return care.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return care.ErrNotFound
	}
	return err
}

// encodeRule returns the jsonb value for rule, nil for a one-off item.
func encodeRule(rule recurrence.Rule) ([]byte, error) {
	if rule == nil {
		return nil, nil
	}
	return recurrence.Marshal(rule)
}

// decodeRule never fails the row: a bad rule is returned as ruleErr so
// callers can skip the item.
func decodeRule(raw []byte) (recurrence.JSON, error) {
	rule, err := recurrence.Unmarshal(raw)
	if err != nil {
		return recurrence.JSON{}, err
	}
	return recurrence.JSON{Rule: rule}, nil
}
