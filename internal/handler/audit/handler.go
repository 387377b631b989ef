package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/cardio-api/internal/handler"
	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/service/audit"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit/logs", h.ListLogs)
}

type listQuery struct {
	EntityType string `form:"entity_type"`
	Limit      int    `form:"limit"`
}

// ListLogs returns the newest entries first, optionally for one entity.
func (h *Handler) ListLogs(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	entityID, err := handler.OptionalUUID(c, "entity_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	logs, err := h.service.List(c.Request.Context(), &model.AuditFilters{
		EntityType: q.EntityType,
		EntityID:   entityID,
		Limit:      q.Limit,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}
