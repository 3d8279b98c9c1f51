package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/http/response"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/models"
	"github.com/hray3182/CareMind/internal/recurrence"
)

// AccessChecker is satisfied by *access.Checker.
type AccessChecker interface {
	Require(ctx context.Context, callerID, ownerID uuid.UUID) error
}

// ItemHandler serves medications and routines, which share every route
// shape except their payload.
type ItemHandler struct {
	log    *logger.Logger
	care   *care.Service
	access AccessChecker
}

func NewItemHandler(log *logger.Logger, svc *care.Service, checker AccessChecker) *ItemHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ItemHandler{log: log.With("handler", "ItemHandler"), care: svc, access: checker}
}

type createMedicationRequest struct {
	Title             string          `json:"titulo"`
	Dosage            string          `json:"dosagem"`
	Recurrence        recurrence.JSON `json:"recorrencia"`
	QuantityRemaining int             `json:"quantidade_restante"`
}

type createRoutineRequest struct {
	Title       string          `json:"titulo"`
	Description string          `json:"descricao"`
	Recurrence  recurrence.JSON `json:"recorrencia"`
}

type completionRequest struct {
	// At defaults to now.
	At *time.Time `json:"at"`
}

func (h *ItemHandler) ListMedications(c *gin.Context) { h.list(c, models.KindMedication) }
func (h *ItemHandler) ListRoutines(c *gin.Context)    { h.list(c, models.KindRoutine) }

func (h *ItemHandler) DeleteMedication(c *gin.Context) { h.delete(c, models.KindMedication) }
func (h *ItemHandler) DeleteRoutine(c *gin.Context)    { h.delete(c, models.KindRoutine) }

func (h *ItemHandler) MarkMedicationTaken(c *gin.Context)   { h.markDone(c, models.KindMedication) }
func (h *ItemHandler) UnmarkMedicationTaken(c *gin.Context) { h.markUndone(c, models.KindMedication) }
func (h *ItemHandler) MarkRoutineDone(c *gin.Context)       { h.markDone(c, models.KindRoutine) }
func (h *ItemHandler) UnmarkRoutineDone(c *gin.Context)     { h.markUndone(c, models.KindRoutine) }

func (h *ItemHandler) CreateMedication(c *gin.Context) {
	ownerID, ok := h.authorizeOwner(c)
	if !ok {
		return
	}
	var req createMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondServiceError(c, h.log, bindError(err))
		return
	}
	m := &models.Medication{
		OwnerID:           ownerID,
		Title:             req.Title,
		Dosage:            req.Dosage,
		Recurrence:        req.Recurrence,
		QuantityRemaining: req.QuantityRemaining,
	}
	if err := h.care.CreateMedication(c.Request.Context(), m); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"medicamento": m})
}

func (h *ItemHandler) CreateRoutine(c *gin.Context) {
	ownerID, ok := h.authorizeOwner(c)
	if !ok {
		return
	}
	var req createRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondServiceError(c, h.log, bindError(err))
		return
	}
	r := &models.Routine{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Recurrence:  req.Recurrence,
	}
	if err := h.care.CreateRoutine(c.Request.Context(), r); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"rotina": r})
}

func (h *ItemHandler) list(c *gin.Context, kind models.ItemKind) {
	ownerID, ok := h.authorizeOwner(c)
	if !ok {
		return
	}
	now := h.care.Now()
	ref, err := parseTime("date", c.Query("date"), h.care.Location(), now)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	if !recurrence.SameDay(ref, now) {
		// Another day is judged as of its end, except today which is
		// judged as of now.
		ref = recurrence.StartOfDay(ref).AddDate(0, 0, 1).Add(-time.Second)
	}
	views, err := h.care.Items(c.Request.Context(), ownerID, kind, ref)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"data": ref.Format(dateLayout), "itens": views})
}

func (h *ItemHandler) delete(c *gin.Context, kind models.ItemKind) {
	item, ok := h.authorizeItem(c, kind)
	if !ok {
		return
	}
	if err := h.care.Delete(c.Request.Context(), kind, item.ItemID()); err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ItemHandler) markDone(c *gin.Context, kind models.ItemKind) {
	item, ok := h.authorizeItem(c, kind)
	if !ok {
		return
	}
	var req completionRequest
	// The body is optional; an empty one, chunked or not, decodes as io.EOF.
	if c.Request.Body != nil {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.RespondServiceError(c, h.log, bindError(err))
			return
		}
	}
	at := h.care.Now()
	if req.At != nil {
		at = req.At.In(h.care.Location())
	}
	updated, err := h.care.MarkDone(c.Request.Context(), kind, item.ItemID(), at)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"status": models.StatusDone, "item": updated})
}

func (h *ItemHandler) markUndone(c *gin.Context, kind models.ItemKind) {
	item, ok := h.authorizeItem(c, kind)
	if !ok {
		return
	}
	updated, err := h.care.MarkUndone(c.Request.Context(), kind, item.ItemID())
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"status": models.StatusPending, "item": updated})
}

// authorizeOwner resolves :ownerId and checks the caller may act on it. On
// failure the response is already written.
func (h *ItemHandler) authorizeOwner(c *gin.Context) (uuid.UUID, bool) {
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

// authorizeItem loads :id and checks the caller may act on its owner.
func (h *ItemHandler) authorizeItem(c *gin.Context, kind models.ItemKind) (models.ScheduledItem, bool) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return nil, false
	}
	item, err := h.care.Item(c.Request.Context(), kind, id)
	if err != nil {
		response.RespondServiceError(c, h.log, err)
		return nil, false
	}
	if err := h.access.Require(c.Request.Context(), callerID(c), item.Owner()); err != nil {
		response.RespondServiceError(c, h.log, err)
		return nil, false
	}
	return item, true
}
