package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/http/response"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/recurrence"
)

type AgendaHandler struct {
	log    *logger.Logger
	care   *care.Service
	access AccessChecker
}

func NewAgendaHandler(log *logger.Logger, svc *care.Service, checker AccessChecker) *AgendaHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &AgendaHandler{log: log.With("handler", "AgendaHandler"), care: svc, access: checker}
}

// GetAgenda lists occurrences between from and to. Both default to a week
// starting today; a bare date for to covers that whole day.
func (h *AgendaHandler) GetAgenda(c *gin.Context) {
	ownerID, err := uuidParam(c, "ownerId")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	if err := h.access.Require(c.Request.Context(), callerID(c), ownerID); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}

	loc := h.care.Location()
	today := recurrence.StartOfDay(h.care.Now())
	from, err := parseTime("from", c.Query("from"), loc, today)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	to, err := parseTime("to", c.Query("to"), loc, from.AddDate(0, 0, 7))
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	if raw := c.Query("to"); len(raw) == len(dateLayout) {
		to = to.AddDate(0, 0, 1).Add(-1)
	}

	entries, err := h.care.Agenda(c.Request.Context(), ownerID, from, to)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"from": from, "to": to, "ocorrencias": entries})
}
