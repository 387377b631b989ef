package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/repository"
)

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(sql.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("scan: %w", sql.ErrNoRows)), repository.ErrNotFound)

	dup := &pq.Error{Code: uniqueViolation, Constraint: "appointments_clinician_slot"}
	err := mapError(dup)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Contains(t, err.Error(), "appointments_clinician_slot")

	other := errors.New("connection refused")
	assert.Equal(t, other, mapError(other))
}

func TestBuildAppointmentWhere(t *testing.T) {
	day := time.Date(2025, 5, 12, 9, 30, 0, 0, time.UTC)
	clinicianID := uuid.New()

	where, args := buildAppointmentWhere(&model.AppointmentFilters{Range: model.Day(day)})
	assert.Equal(t, " WHERE a.scheduled_at >= $1 AND a.scheduled_at < $2", where)
	assert.Equal(t, time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), args[0])
	assert.Equal(t, time.Date(2025, 5, 13, 0, 0, 0, 0, time.UTC), args[1])

	where, args = buildAppointmentWhere(&model.AppointmentFilters{
		ClinicianID: &clinicianID,
		Status:      model.AppointmentStatusArrived,
		Range:       model.Day(day),
	})
	assert.Contains(t, where, "a.clinician_id = $3")
	assert.Contains(t, where, "a.status = $4")
	assert.Len(t, args, 4)
	assert.Equal(t, clinicianID, args[2])
}
