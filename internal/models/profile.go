package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the kind of account behind a profile.
type Role string

const (
	RoleIndividual Role = "individual"
	RoleFamiliar   Role = "familiar"
	RoleElderly    Role = "idoso"
)

type Profile struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"nome"`
	Role           Role      `json:"tipo"`
	TelegramChatID *int64    `json:"telegram_chat_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// FamilyLink lets a familiar act on an elderly profile's items.
type FamilyLink struct {
	FamiliarID uuid.UUID `json:"familiar_id"`
	ElderlyID  uuid.UUID `json:"idoso_id"`
	CreatedAt  time.Time `json:"created_at"`
}
