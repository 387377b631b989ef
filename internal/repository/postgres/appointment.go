package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/repository"
)

type appointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, clinician_id, scheduled_at, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.ClinicianID,
		appointment.ScheduledAt,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", mapError(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT a.id, a.patient_id, a.clinician_id, a.scheduled_at, a.status,
			   a.created_at, a.updated_at, p.name AS patient_name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.id = $1
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", mapError(err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) ExistsAt(ctx context.Context, clinicianID uuid.UUID, at time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM appointments WHERE clinician_id = $1 AND scheduled_at = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, clinicianID, at); err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return exists, nil
}

func (r *appointmentRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("failed to check appointment: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrStaleStatus
	}
	return nil
}

func buildAppointmentWhere(filters *model.AppointmentFilters) (string, []interface{}) {
	from, to := filters.Range.Bounds()
	where := " WHERE a.scheduled_at >= $1 AND a.scheduled_at < $2"
	args := []interface{}{from, to}

	if filters.ClinicianID != nil {
		args = append(args, *filters.ClinicianID)
		where += fmt.Sprintf(" AND a.clinician_id = $%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	return where, args
}

func (r *appointmentRepository) Find(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	where, args := buildAppointmentWhere(filters)
	query := `
		SELECT a.id, a.patient_id, a.clinician_id, a.scheduled_at, a.status,
			   a.created_at, a.updated_at, p.name AS patient_name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id` + where + `
		ORDER BY a.scheduled_at ASC`

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) CountByStatus(ctx context.Context, filters *model.AppointmentFilters) ([]model.StatusCount, error) {
	where, args := buildAppointmentWhere(filters)
	query := `
		SELECT a.clinician_id, a.status, COUNT(*) AS count
		FROM appointments a` + where + `
		GROUP BY a.clinician_id, a.status`

	var counts []model.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}
	return counts, nil
}
