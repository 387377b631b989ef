package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/cardio-api/internal/handler"
	"github.com/jwalitptl/cardio-api/internal/middleware"
	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/service/appointment"
)

// defaultStatsWindow is the look-back used when a stats request names no start.
const defaultStatsWindow = 30

type Handler struct {
	service *appointment.Service
	now     func() time.Time
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/waiting-room", h.WaitingRoom)
		appointments.GET("/stats", h.Stats)
		appointments.GET("/stats/clinicians", h.StatsByClinician)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/transition", h.Transition)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	session, _ := middleware.SessionFrom(c)
	a, err := h.service.Schedule(c.Request.Context(), session, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(a))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	a, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
}

// ListAppointments returns one day's agenda, today unless date is given.
func (h *Handler) ListAppointments(c *gin.Context) {
	clinicianID, err := handler.OptionalUUID(c, "clinician_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	day, err := handler.QueryDate(c, "date", h.now())
	if err != nil {
		_ = c.Error(err)
		return
	}

	appointments, err := h.service.Agenda(c.Request.Context(), clinicianID, day)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) Transition(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.TransitionRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	session, _ := middleware.SessionFrom(c)
	a, err := h.service.Transition(c.Request.Context(), session, id, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
}

func (h *Handler) WaitingRoom(c *gin.Context) {
	clinicianID, err := handler.OptionalUUID(c, "clinician_id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	appointments, err := h.service.WaitingRoom(c.Request.Context(), clinicianID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) Stats(c *gin.Context) {
	clinicianID, err := handler.OptionalUUID(c, "clinician_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	r, err := h.dateRange(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), clinicianID, r)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) StatsByClinician(c *gin.Context) {
	r, err := h.dateRange(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	stats, err := h.service.StatsByClinician(c.Request.Context(), r)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}

func (h *Handler) dateRange(c *gin.Context) (model.DateRange, error) {
	today := h.now()
	end, err := handler.QueryDate(c, "end", today)
	if err != nil {
		return model.DateRange{}, err
	}
	start, err := handler.QueryDate(c, "start", end.AddDate(0, 0, -defaultStatsWindow))
	if err != nil {
		return model.DateRange{}, err
	}
	return model.DateRange{Start: start, End: end}, nil
}
