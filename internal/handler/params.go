package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
)

const DateLayout = "2006-01-02"

// ParseID reads a UUID path parameter.
func ParseID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation(name, "invalid "+name)
	}
	return id, nil
}

// OptionalUUID reads a UUID query parameter; an absent one is nil.
func OptionalUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.Validation(name, "invalid "+name)
	}
	return &id, nil
}

// QueryDate reads a YYYY-MM-DD query parameter in the server's zone,
// falling back to def when absent.
func QueryDate(c *gin.Context, name string, def time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, apperrors.Validation(name, name+" must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

// BindJSON decodes the body, reporting failures as validation errors.
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.Validation("body", err.Error())
	}
	return nil
}
