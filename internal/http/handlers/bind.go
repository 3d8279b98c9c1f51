package handlers

import (
	"errors"

	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/recurrence"
)

// bindError keeps recurrence errors distinguishable and turns any other
// decoding failure into a validation error.
func bindError(err error) error {
	if errors.Is(err, recurrence.ErrInvalidRule) {
		return err
	}
	return &care.ValidationError{Field: "body", Message: "corpo da requisição inválido"}
}
