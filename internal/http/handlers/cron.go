package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/http/response"
	"github.com/hray3182/CareMind/internal/logger"
)

// CronHandler lets an external scheduler trigger the recurring jobs.
type CronHandler struct {
	log  *logger.Logger
	care *care.Service
}

func NewCronHandler(log *logger.Logger, svc *care.Service) *CronHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &CronHandler{log: log.With("handler", "CronHandler"), care: svc}
}

func (h *CronHandler) Reset(c *gin.Context) {
	summary, err := h.care.Sweep(c.Request.Context(), h.care.Now())
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, summary)
}

func (h *CronHandler) Monitor(c *gin.Context) {
	summary, err := h.care.Monitor(c.Request.Context(), h.care.Now())
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, summary)
}
