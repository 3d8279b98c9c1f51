package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hray3182/CareMind/internal/access"
	"github.com/hray3182/CareMind/internal/ai"
	"github.com/hray3182/CareMind/internal/care"
	"github.com/hray3182/CareMind/internal/linkcode"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/recurrence"
)

const retryMessage = "Não foi possível concluir a operação. Por favor, tente novamente."

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondServiceError maps domain errors to status codes. Anything it does
// not recognize is logged and answered with a generic retry message.
func RespondServiceError(c *gin.Context, log *logger.Logger, err error) {
	var verr *care.ValidationError
	switch {
	case errors.Is(err, access.ErrAccessDenied):
		c.JSON(http.StatusForbidden, ErrorEnvelope{Error: APIError{
			Message: "Você não tem permissão para acessar este perfil.",
			Code:    "access_denied",
		}})
	case errors.Is(err, linkcode.ErrInvalidCode):
		c.JSON(http.StatusForbidden, ErrorEnvelope{Error: APIError{
			Message: "Código inválido ou expirado. Gere um novo código.",
			Code:    "invalid_link_code",
			Field:   "codigo",
		}})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{
			Message: verr.Message,
			Code:    "validation_error",
			Field:   verr.Field,
		}})
	case errors.Is(err, recurrence.ErrInvalidRule):
		c.JSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{
			Message: err.Error(),
			Code:    "invalid_recurrence",
			Field:   "recorrencia",
		}})
	case errors.Is(err, care.ErrInvalidKind):
		RespondError(c, http.StatusBadRequest, "invalid_kind", err)
	case errors.Is(err, care.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", errors.New("Item não encontrado."))
	case errors.Is(err, ai.ErrDisabled):
		RespondError(c, http.StatusServiceUnavailable, "ai_disabled", err)
	default:
		if log != nil {
			log.Error("request failed", "path", c.FullPath(), "error", err)
		}
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New(retryMessage))
	}
}
