// Package linkcode issues short single-use codes through which a profile hands
// out access: binding a Telegram chat or inviting a familiar. Only a hash of
// each code is stored.
package linkcode

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCode covers unknown, expired, already used and wrong-purpose codes.
var ErrInvalidCode = errors.New("invalid or expired link code")

type Purpose string

const (
	PurposeTelegram Purpose = "telegram"
	PurposeFamily   Purpose = "familia"
)

const (
	codeLength = 8
	// 32 symbols divide 256 evenly; 0, O, 1 and I are left out.
	alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Record is the stored form of a code.
type Record struct {
	Hash      string
	Purpose   Purpose
	ProfileID uuid.UUID
	ExpiresAt time.Time
}

type Store interface {
	Save(ctx context.Context, r *Record) error
	// Consume marks the matching unused, unexpired code as used and returns
	// its profile, or ErrInvalidCode.
	Consume(ctx context.Context, hash string, purpose Purpose, now time.Time) (uuid.UUID, error)
	DeleteExpired(ctx context.Context, before time.Time) error
}

// Code is what the issuing profile shares.
type Code struct {
	Value     string    `json:"codigo"`
	Purpose   Purpose   `json:"finalidade"`
	ExpiresAt time.Time `json:"expira_em"`
}

type Issuer struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewIssuer(store Store, ttl time.Duration, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{store: store, ttl: ttl, now: now}
}

// Issue creates a code for profileID valid for the issuer's TTL.
func (i *Issuer) Issue(ctx context.Context, purpose Purpose, profileID uuid.UUID) (*Code, error) {
	now := i.now()
	if err := i.store.DeleteExpired(ctx, now); err != nil {
		return nil, fmt.Errorf("failed to purge expired codes: %w", err)
	}

	value, err := generate()
	if err != nil {
		return nil, err
	}
	rec := &Record{
		Hash:      Hash(value),
		Purpose:   purpose,
		ProfileID: profileID,
		ExpiresAt: now.Add(i.ttl),
	}
	if err := i.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save link code: %w", err)
	}
	return &Code{Value: value, Purpose: purpose, ExpiresAt: rec.ExpiresAt}, nil
}

// Redeem consumes value and returns the profile that issued it.
func (i *Issuer) Redeem(ctx context.Context, purpose Purpose, value string) (uuid.UUID, error) {
	value = normalize(value)
	if len(value) != codeLength {
		return uuid.Nil, ErrInvalidCode
	}
	return i.store.Consume(ctx, Hash(value), purpose, i.now())
}

// Hash is the stored digest of a code, after normalization.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(normalize(value)))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// normalize accepts codes typed in lower case or with spaces and dashes.
func normalize(value string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(value)))
}

func generate() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate link code: %w", err)
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b), nil
}
