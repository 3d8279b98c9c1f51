package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/http/response"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/models"
)

// VoiceHandler receives already-parsed intents from the voice platform and
// only flips completion status.
type VoiceHandler struct {
	log    *logger.Logger
	care   *care.Service
	access AccessChecker
}

func NewVoiceHandler(log *logger.Logger, svc *care.Service, checker AccessChecker) *VoiceHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &VoiceHandler{log: log.With("handler", "VoiceHandler"), care: svc, access: checker}
}

type voiceCompleteRequest struct {
	ProfileID uuid.UUID       `json:"perfil_id"`
	Kind      models.ItemKind `json:"tipo"`
	Title     string          `json:"titulo"`
}

func (h *VoiceHandler) Complete(c *gin.Context) {
	var req voiceCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondServiceError(c, h.log, bindError(err))
		return
	}
	if req.ProfileID == uuid.Nil {
		req.ProfileID = callerID(c)
	}
	if err := h.access.Require(c.Request.Context(), callerID(c), req.ProfileID); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}

	item, err := h.care.CompleteByTitle(c.Request.Context(), req.ProfileID, req.Kind, req.Title)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{
		"status":    models.StatusDone,
		"tipo_item": item.Kind(),
		"item":      item,
		"fala":      "Pronto, marquei " + item.Label() + " como concluído.",
	})
}
