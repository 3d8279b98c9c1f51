package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hray3182/CareMind/internal/access"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/http/response"
	"github.com/hray3182/CareMind/internal/linkcode"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/models"
)

type FamilyLinker interface {
	Link(ctx context.Context, familiarID, elderlyID uuid.UUID) (*models.FamilyLink, error)
	Unlink(ctx context.Context, familiarID, elderlyID uuid.UUID) error
}

type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// CodeRedeemer is satisfied by *linkcode.Issuer.
type CodeRedeemer interface {
	Redeem(ctx context.Context, purpose linkcode.Purpose, value string) (uuid.UUID, error)
}

type FamilyHandler struct {
	log      *logger.Logger
	links    FamilyLinker
	profiles ProfileReader
	codes    CodeRedeemer
}

func NewFamilyHandler(log *logger.Logger, links FamilyLinker, profiles ProfileReader, codes CodeRedeemer) *FamilyHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &FamilyHandler{log: log.With("handler", "FamilyHandler"), links: links, profiles: profiles, codes: codes}
}

type linkRequest struct {
	// Code is the invitation issued for the elderly profile.
	Code string `json:"codigo"`
}

// CreateLink links the calling familiar to the elderly profile that issued
// the invitation code. Without a code the link is refused.
func (h *FamilyHandler) CreateLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondServiceError(c, h.log, bindError(err))
		return
	}
	ctx := c.Request.Context()

	caller, err := h.profiles.GetByID(ctx, callerID(c))
	if err != nil {
		if errors.Is(err, care.ErrNotFound) {
			err = access.ErrAccessDenied
		}
		response.RespondServiceError(c, h.log, err)
		return
	}
	// Checked before redeeming so a wrong caller does not burn the code.
	if caller.Role != models.RoleFamiliar || strings.TrimSpace(req.Code) == "" {
		response.RespondServiceError(c, h.log, access.ErrAccessDenied)
		return
	}

	elderlyID, err := h.codes.Redeem(ctx, linkcode.PurposeFamily, req.Code)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	elderly, err := h.profiles.GetByID(ctx, elderlyID)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	if elderly.Role != models.RoleElderly {
		response.RespondServiceError(c, h.log, &care.ValidationError{Field: "codigo", Message: "o perfil do convite não é de um idoso"})
		return
	}

	link, err := h.links.Link(ctx, caller.ID, elderly.ID)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	h.log.Info("family link created", "familiar_id", caller.ID, "elderly_id", elderly.ID)
	response.RespondCreated(c, gin.H{"vinculo": link})
}

// DeleteLink removes the caller's link to :elderlyId. Removing a link that
// does not exist succeeds.
func (h *FamilyHandler) DeleteLink(c *gin.Context) {
	elderlyID, err := uuidParam(c, "elderlyId")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	if err := h.links.Unlink(c.Request.Context(), callerID(c), elderlyID); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
