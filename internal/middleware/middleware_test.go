package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/cardio-api/internal/model"
	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
	"github.com/jwalitptl/cardio-api/pkg/logger"
)

type fakeAuthenticator struct {
	sessions map[string]*model.Session
}

func (f fakeAuthenticator) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	if s, ok := f.sessions[token]; ok {
		return s, nil
	}
	return nil, apperrors.Unauthorized(errors.New("unknown token"))
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.Use(RequestID(), ErrorHandler(logger.Nop()))
	return e
}

func serve(e *gin.Engine, method, path, token string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestAuthAndRoles(t *testing.T) {
	auth := NewAuthMiddleware(fakeAuthenticator{sessions: map[string]*model.Session{
		"admin-token": {ID: uuid.New(), Role: model.RoleAdmin},
		"desk-token":  {ID: uuid.New(), Role: model.RoleReception},
	}})

	e := newEngine()
	e.GET("/admin", auth.Authenticate(), auth.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		session, ok := SessionFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, string(session.Role))
	})

	w := serve(e, http.MethodGet, "/admin", "admin-token", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())

	w = serve(e, http.MethodGet, "/admin", "desk-token", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(e, http.MethodGet, "/admin", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(e, http.MethodGet, "/admin", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, w.Header().Get(HeaderXRequestID), resp.TraceID)
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	e := newEngine()
	e.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: connection refused"))
	})
	e.GET("/partial", func(c *gin.Context) {
		_ = c.Error(apperrors.Persistence("prescription", "abc", errors.New("disk full")))
	})

	w := serve(e, http.MethodGet, "/boom", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")

	w = serve(e, http.MethodGet, "/partial", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "prescription", resp.Entity)
	assert.Equal(t, "abc", resp.Value)
	assert.NotContains(t, resp.Message, "disk full")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{PerMinute: 1, Burst: 2})
	e := newEngine()
	e.POST("/login", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/login", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/login", "", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, http.MethodPost, "/login", "", "").Code)
}

func TestBodyLimitAndRecovery(t *testing.T) {
	e := gin.New()
	e.Use(Recovery(logger.Nop()), BodyLimit(8))
	e.POST("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })
	e.GET("/panic", func(c *gin.Context) { panic("unexpected") })

	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/echo", "", "small").Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(e, http.MethodPost, "/echo", "", "far too large").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(e, http.MethodGet, "/panic", "", "").Code)
}
