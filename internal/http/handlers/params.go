package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hray3182/CareMind/internal/auth"
	"github.com/hray3182/CareMind/internal/care"
)

const dateLayout = "2006-01-02"

func callerID(c *gin.Context) uuid.UUID {
	return auth.ProfileID(c.Request.Context())
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, &care.ValidationError{Field: name, Message: "identificador inválido"}
	}
	return id, nil
}

// parseTime accepts either a calendar date or an RFC 3339 instant. An empty
// value yields def.
func parseTime(field, value string, loc *time.Location, def time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &care.ValidationError{Field: field, Message: "data inválida, use AAAA-MM-DD"}
	}
	return t.In(loc), nil
}
