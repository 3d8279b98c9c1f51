// Package access decides whether a caller may act on another profile's items.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrAccessDenied = errors.New("access denied")

// LinkFinder reports whether a familiar is linked to an elderly profile.
type LinkFinder interface {
	Exists(ctx context.Context, familiarID, elderlyID uuid.UUID) (bool, error)
}

type Checker struct {
	links LinkFinder
}

func NewChecker(links LinkFinder) *Checker {
	return &Checker{links: links}
}

// CanAccess is true when the caller owns the items or is a linked familiar of
// the owner.
func (c *Checker) CanAccess(ctx context.Context, callerID, ownerID uuid.UUID) (bool, error) {
	if callerID == uuid.Nil || ownerID == uuid.Nil {
		return false, nil
	}
	if callerID == ownerID {
		return true, nil
	}
	ok, err := c.links.Exists(ctx, callerID, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to check family link: %w", err)
	}
	return ok, nil
}

// Require is CanAccess returning ErrAccessDenied instead of false.
func (c *Checker) Require(ctx context.Context, callerID, ownerID uuid.UUID) error {
	ok, err := c.CanAccess(ctx, callerID, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccessDenied
	}
	return nil
}
