package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hray3182/CareMind/internal/ai"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/http/response"
	"github.com/hray3182/CareMind/internal/logger"
)

// Drafter is satisfied by *ai.Client.
type Drafter interface {
	ParseMedication(ctx context.Context, text string) (*ai.MedicationDraft, error)
}

type ParseHandler struct {
	log     *logger.Logger
	drafter Drafter
	access  AccessChecker
}

func NewParseHandler(log *logger.Logger, drafter Drafter, checker AccessChecker) *ParseHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ParseHandler{log: log.With("handler", "ParseHandler"), drafter: drafter, access: checker}
}

type parseRequest struct {
	Text string `json:"texto"`
}

// ParseMedication returns a draft for the client to confirm and submit
// through the regular create route.
func (h *ParseHandler) ParseMedication(c *gin.Context) {
	ownerID, err := uuidParam(c, "ownerId")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	if err := h.access.Require(c.Request.Context(), callerID(c), ownerID); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	if h.drafter == nil {
		response.RespondServiceError(c, h.log, ai.ErrDisabled)
		return
	}

	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		response.RespondServiceError(c, h.log, &care.ValidationError{Field: "texto", Message: "descreva o medicamento"})
		return
	}

	draft, err := h.drafter.ParseMedication(c.Request.Context(), req.Text)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"rascunho": draft})
}
