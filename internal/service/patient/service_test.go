package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
	"github.com/jwalitptl/cardio-api/pkg/logger"
)

var reception = &model.Session{ID: uuid.New(), UserID: uuid.New(), Role: model.RoleReception}

func newTestService() *Service {
	svc := NewService(memory.NewStore().Patients(), "US", nil, logger.Nop())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func childRequest() *model.CreatePatientRequest {
	return &model.CreatePatientRequest{
		Name:      "Lucas Pérez",
		BirthDate: time.Date(2018, 3, 10, 0, 0, 0, 0, time.UTC),
		Pediatric: true,
		Contact:   "(650) 253-0000",
		Guardian:  "María Pérez",
	}
}

func TestRegisterNormalisesPhone(t *testing.T) {
	svc := newTestService()

	p, warnings, err := svc.Register(context.Background(), reception, childRequest())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "+16502530000", p.Contact)
	require.NotNil(t, p.Guardian)
	assert.Equal(t, "María Pérez", *p.Guardian)
}

func TestRegisterGuardianInvariant(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	req := childRequest()
	req.Guardian = ""
	_, _, err := svc.Register(ctx, reception, req)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Equal(t, "guardian", appErr.Field)

	adult := &model.CreatePatientRequest{
		Name:      "Jorge Ruiz",
		BirthDate: time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC),
		Contact:   "+1 650 253 0000",
		Guardian:  "Someone",
	}
	_, _, err = svc.Register(ctx, reception, adult)
	assert.True(t, apperrors.IsValidation(err))

	adult.Guardian = ""
	_, _, err = svc.Register(ctx, reception, adult)
	assert.NoError(t, err)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	req := childRequest()
	req.Contact = "12"
	_, _, err := svc.Register(ctx, reception, req)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "contact", appErr.Field)

	req = childRequest()
	req.Name = ""
	_, _, err = svc.Register(ctx, reception, req)
	assert.True(t, apperrors.IsValidation(err))

	req = childRequest()
	req.BirthDate = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _, err = svc.Register(ctx, reception, req)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRegisterWarnsOnAgeMismatch(t *testing.T) {
	svc := newTestService()

	req := childRequest()
	req.BirthDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	p, warnings, err := svc.Register(context.Background(), reception, req)
	require.NoError(t, err)
	assert.True(t, p.Pediatric)
	assert.Len(t, warnings, 1)
}

func TestUpdate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	p, _, err := svc.Register(ctx, reception, childRequest())
	require.NoError(t, err)

	adult := false
	_, _, err = svc.Update(ctx, reception, p.ID, &model.UpdatePatientRequest{Pediatric: &adult})
	assert.True(t, apperrors.IsValidation(err), "guardian must be cleared when the patient becomes adult")

	empty := ""
	updated, _, err := svc.Update(ctx, reception, p.ID, &model.UpdatePatientRequest{Pediatric: &adult, Guardian: &empty})
	require.NoError(t, err)
	assert.False(t, updated.Pediatric)
	assert.Nil(t, updated.Guardian)

	_, _, err = svc.Update(ctx, reception, uuid.New(), &model.UpdatePatientRequest{})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSearch(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	lucas, _, err := svc.Register(ctx, reception, childRequest())
	require.NoError(t, err)
	req := childRequest()
	req.Name = "Ana Gómez"
	_, _, err = svc.Register(ctx, reception, req)
	require.NoError(t, err)

	all, err := svc.Search(ctx, &model.PatientFilters{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ana Gómez", all[0].Name)

	byName, err := svc.Search(ctx, &model.PatientFilters{Query: "lucas"})
	require.NoError(t, err)
	require.Len(t, byName, 1)

	byID, err := svc.Search(ctx, &model.PatientFilters{Query: lucas.ID.String()[:8]})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, lucas.ID, byID[0].ID)
}
