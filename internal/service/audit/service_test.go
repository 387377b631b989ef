package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/pkg/logger"
)

type mockAuditRepository struct {
	logs []*model.AuditLog
	err  error
}

func (m *mockAuditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockAuditRepository) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	return m.logs, nil
}

func (m *mockAuditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, m.err
}

func TestLog(t *testing.T) {
	repo := &mockAuditRepository{}
	svc := NewService(repo, logger.Nop())

	userID, entityID := uuid.New(), uuid.New()
	ctx := ContextWithClientIP(context.Background(), "10.0.0.7")
	svc.Log(ctx, userID, model.AuditActionCreate, model.AuditEntityPatient, entityID, &LogOptions{
		Metadata: map[string]string{"name": "Ana"},
	})

	require.Len(t, repo.logs, 1)
	entry := repo.logs[0]
	assert.Equal(t, userID, entry.UserID)
	assert.Equal(t, entityID, entry.EntityID)
	assert.Equal(t, "10.0.0.7", entry.IPAddress)
	assert.JSONEq(t, `{"name":"Ana"}`, string(entry.Metadata))
}

func TestLogSwallowsErrors(t *testing.T) {
	svc := NewService(&mockAuditRepository{err: errors.New("db down")}, logger.Nop())
	assert.NotPanics(t, func() {
		svc.Log(context.Background(), uuid.New(), model.AuditActionLogin, model.AuditEntityUser, uuid.New(), nil)
	})

	var nilSvc *Service
	assert.NotPanics(t, func() {
		nilSvc.Log(context.Background(), uuid.New(), model.AuditActionLogin, model.AuditEntityUser, uuid.New(), nil)
	})
}

func TestListClampsLimit(t *testing.T) {
	svc := NewService(&mockAuditRepository{}, logger.Nop())
	filters := &model.AuditFilters{Limit: 10000}
	_, err := svc.List(context.Background(), filters)
	require.NoError(t, err)
	assert.Equal(t, 100, filters.Limit)
}
