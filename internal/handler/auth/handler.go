package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/cardio-api/internal/handler"
	"github.com/jwalitptl/cardio-api/internal/middleware"
	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/service/auth"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts login on the public group and the session routes on
// the authenticated one. loginLimit throttles login attempts.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup, loginLimit gin.HandlerFunc) {
	public.POST("/auth/login", loginLimit, h.Login)

	auth := protected.Group("/auth")
	{
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) Logout(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)
	if err := h.svc.Logout(c.Request.Context(), session); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("logged out successfully"))
}

func (h *Handler) Me(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(session))
}
