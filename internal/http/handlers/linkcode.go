package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/http/response"
	"github.com/hray3182/CareMind/internal/linkcode"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/models"
)

// CodeIssuer is satisfied by *linkcode.Issuer.
type CodeIssuer interface {
	Issue(ctx context.Context, purpose linkcode.Purpose, profileID uuid.UUID) (*linkcode.Code, error)
}

// LinkCodeHandler hands out the codes that bind a Telegram chat to a profile
// or invite a familiar to an elderly profile.
type LinkCodeHandler struct {
	log      *logger.Logger
	codes    CodeIssuer
	profiles ProfileReader
	access   AccessChecker
}

func NewLinkCodeHandler(log *logger.Logger, codes CodeIssuer, profiles ProfileReader, checker AccessChecker) *LinkCodeHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &LinkCodeHandler{log: log.With("handler", "LinkCodeHandler"), codes: codes, profiles: profiles, access: checker}
}

func (h *LinkCodeHandler) IssueTelegramCode(c *gin.Context) {
	ownerID, ok := h.authorize(c)
	if !ok {
		return
	}
	code, err := h.codes.Issue(c.Request.Context(), linkcode.PurposeTelegram, ownerID)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, code)
}

// IssueFamilyCode creates an invitation a familiar redeems at POST
// /family/links. Only elderly profiles take familiars.
func (h *LinkCodeHandler) IssueFamilyCode(c *gin.Context) {
	ownerID, ok := h.authorize(c)
	if !ok {
		return
	}
	owner, err := h.profiles.GetByID(c.Request.Context(), ownerID)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	if owner.Role != models.RoleElderly {
		response.RespondServiceError(c, h.log, &care.ValidationError{Field: "ownerId", Message: "apenas perfis de idoso recebem familiares"})
		return
	}
	code, err := h.codes.Issue(c.Request.Context(), linkcode.PurposeFamily, ownerID)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, code)
}

func (h *LinkCodeHandler) authorize(c *gin.Context) (uuid.UUID, bool) {
	ownerID, err := uuidParam(c, "ownerId")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return uuid.Nil, false
	}
	if err := h.access.Require(c.Request.Context(), callerID(c), ownerID); err != nil {
		response.RespondServiceError(c, h.log, err)
		return uuid.Nil, false
	}
	return ownerID, true
}
