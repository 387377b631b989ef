package consultation

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/cardio-api/internal/handler"
	"github.com/jwalitptl/cardio-api/internal/middleware"
	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/service/consultation"
)

type Handler struct {
	service *consultation.Service
}

func NewHandler(service *consultation.Service) *Handler {
	return &Handler{service: service}
}

type emailRequest struct {
	To string `json:"to" binding:"omitempty,email"`
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/triage", h.Triage)

	consultations := r.Group("/consultations")
	{
		consultations.POST("", h.CreateConsultation)
		consultations.GET("/exam-types", h.ExamTypes)
		consultations.GET("/:id", h.GetConsultation)
		consultations.GET("/:id/report", h.Report)
		consultations.POST("/:id/report/email", h.EmailReport)
	}

	r.GET("/patients/:id/consultations", h.ListByPatient)
	r.GET("/patients/:id/reports", h.ListReports)
}

func (h *Handler) CreateConsultation(c *gin.Context) {
	var req model.CreateConsultationRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	session, _ := middleware.SessionFrom(c)
	res, err := h.service.Create(c.Request.Context(), session, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(res))
}

func (h *Handler) Triage(c *gin.Context) {
	var req model.TriageRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	session, _ := middleware.SessionFrom(c)
	res, err := h.service.Triage(c.Request.Context(), session, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(res))
}

func (h *Handler) GetConsultation(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	bundle, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(bundle))
}

func (h *Handler) ExamTypes(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(model.SuggestedExamTypes))
}

// Report streams the consultation's PDF, rendered again from the record.
func (h *Handler) Report(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	pdf, name, err := h.service.Report(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *Handler) EmailReport(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req emailRequest
	if c.Request.ContentLength != 0 {
		if err := handler.BindJSON(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
	}

	session, _ := middleware.SessionFrom(c)
	to, err := h.service.EmailReport(c.Request.Context(), session, id, req.To)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"sent_to": to}))
}

func (h *Handler) ListByPatient(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	history, err := h.service.ListByPatient(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(history))
}

func (h *Handler) ListReports(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	reports, err := h.service.ListReports(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(reports))
}
