package appointment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/repository"
	"github.com/jwalitptl/cardio-api/internal/service/audit"
	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
	"github.com/jwalitptl/cardio-api/pkg/metrics"
	"github.com/jwalitptl/cardio-api/pkg/validator"
)

type Service struct {
	repo       repository.AppointmentRepository
	patients   repository.PatientRepository
	clinicians repository.ClinicianRepository
	validate   validator.Validator
	metrics    *metrics.Metrics
	auditor    *audit.Service
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(repo repository.AppointmentRepository, patients repository.PatientRepository,
	clinicians repository.ClinicianRepository, m *metrics.Metrics, auditor *audit.Service, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		patients:   patients,
		clinicians: clinicians,
		validate:   validator.New(),
		metrics:    m,
		auditor:    auditor,
		logger:     logger.With().Str("service", "appointment").Logger(),
		now:        time.Now,
	}
}

// Schedule books a visit. A clinician cannot hold two appointments at the
// exact same instant; any other timestamp, even one second apart, is free.
func (s *Service) Schedule(ctx context.Context, session *model.Session, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		return nil, lookupError("patient", err)
	}
	if _, err := s.clinicians.Get(ctx, req.ClinicianID); err != nil {
		return nil, lookupError("clinician", err)
	}

	// Stored timestamps keep microsecond precision.
	at := req.ScheduledAt.UTC().Truncate(time.Microsecond)

	taken, err := s.repo.ExistsAt(ctx, req.ClinicianID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to check schedule: %w", err)
	}
	if taken {
		return nil, s.conflict(req.ClinicianID, at)
	}

	appointment := &model.Appointment{
		PatientID:   req.PatientID,
		ClinicianID: req.ClinicianID,
		ScheduledAt: at,
		Status:      model.AppointmentStatusScheduled,
	}
	if err := s.repo.Create(ctx, appointment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.conflict(req.ClinicianID, at)
		}
		return nil, apperrors.Persistence("appointment", "", err)
	}

	s.auditor.Log(ctx, session.UserID, model.AuditActionCreate, model.AuditEntityAppointment, appointment.ID, nil)
	return appointment, nil
}

func (s *Service) conflict(clinicianID uuid.UUID, at time.Time) error {
	s.metrics.SchedulingConflicts.Inc()
	return apperrors.Conflict("appointment",
		fmt.Sprintf("clinician %s already has an appointment at %s", clinicianID, at.Format(time.RFC3339Nano)))
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, lookupError("appointment", err)
	}
	return appointment, nil
}

// Transition moves an appointment one step along its lifecycle. Moves the
// lifecycle does not allow fail with InvalidTransition and leave the stored
// status untouched, including when another request changed it first.
func (s *Service) Transition(ctx context.Context, session *model.Session, id uuid.UUID, to model.AppointmentStatus) (*model.Appointment, error) {
	if !to.Valid() {
		appErr := apperrors.Validation("status", "unknown appointment status")
		appErr.Value = string(to)
		return nil, appErr
	}

	appointment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := appointment.Status

	if !from.CanTransitionTo(to) {
		s.metrics.AppointmentTransitions.WithLabelValues(string(to), "rejected").Inc()
		return nil, apperrors.InvalidTransition(string(from), string(to))
	}

	if err := s.repo.SetStatus(ctx, id, from, to); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleStatus):
			s.metrics.AppointmentTransitions.WithLabelValues(string(to), "rejected").Inc()
			return nil, apperrors.InvalidTransition(string(from), string(to))
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("appointment", err)
		default:
			return nil, apperrors.Persistence("appointment", id.String(), err)
		}
	}

	appointment.Status = to
	s.metrics.AppointmentTransitions.WithLabelValues(string(to), "ok").Inc()
	s.auditor.Log(ctx, session.UserID, model.AuditActionTransition, model.AuditEntityAppointment, id, &audit.LogOptions{
		Metadata: map[string]model.AppointmentStatus{"from": from, "to": to},
	})
	s.logger.Debug().Str("appointment_id", id.String()).Str("from", string(from)).Str("to", string(to)).Msg("appointment transitioned")
	return appointment, nil
}

func (s *Service) MarkArrived(ctx context.Context, session *model.Session, id uuid.UUID) (*model.Appointment, error) {
	return s.Transition(ctx, session, id, model.AppointmentStatusArrived)
}

func (s *Service) StartConsultation(ctx context.Context, session *model.Session, id uuid.UUID) (*model.Appointment, error) {
	return s.Transition(ctx, session, id, model.AppointmentStatusInConsultation)
}

func (s *Service) Complete(ctx context.Context, session *model.Session, id uuid.UUID) (*model.Appointment, error) {
	return s.Transition(ctx, session, id, model.AppointmentStatusCompleted)
}

func (s *Service) MarkNoShow(ctx context.Context, session *model.Session, id uuid.UUID) (*model.Appointment, error) {
	return s.Transition(ctx, session, id, model.AppointmentStatusNoShow)
}

// Agenda lists the appointments of one day in time order, optionally for a
// single clinician.
func (s *Service) Agenda(ctx context.Context, clinicianID *uuid.UUID, day time.Time) ([]*model.Appointment, error) {
	appointments, err := s.repo.Find(ctx, &model.AppointmentFilters{
		ClinicianID: clinicianID,
		Range:       model.Day(day),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	return appointments, nil
}

// WaitingRoom lists today's patients who have arrived and are waiting.
func (s *Service) WaitingRoom(ctx context.Context, clinicianID *uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.repo.Find(ctx, &model.AppointmentFilters{
		ClinicianID: clinicianID,
		Status:      model.AppointmentStatusArrived,
		Range:       model.Day(s.now()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	return appointments, nil
}

// Stats aggregates appointment outcomes over an inclusive date range.
func (s *Service) Stats(ctx context.Context, clinicianID *uuid.UUID, r model.DateRange) (*model.AppointmentStats, error) {
	if err := checkRange(r); err != nil {
		return nil, err
	}
	rows, err := s.repo.CountByStatus(ctx, &model.AppointmentFilters{ClinicianID: clinicianID, Range: r})
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	stats := &model.AppointmentStats{
		ClinicianID: clinicianID,
		Range:       r,
		ByStatus:    make(map[model.AppointmentStatus]int, len(model.AppointmentStatuses)),
	}
	for _, st := range model.AppointmentStatuses {
		stats.ByStatus[st] = 0
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] += row.Count
		stats.Total += row.Count
	}
	stats.Completed = stats.ByStatus[model.AppointmentStatusCompleted]
	stats.NoShow = stats.ByStatus[model.AppointmentStatusNoShow]
	stats.AttendanceRate = AttendanceRate(stats.Total, stats.NoShow)
	return stats, nil
}

// StatsByClinician reports attendance for every clinician, including those
// without appointments in the range, ordered by name.
func (s *Service) StatsByClinician(ctx context.Context, r model.DateRange) ([]*model.ClinicianStats, error) {
	if err := checkRange(r); err != nil {
		return nil, err
	}
	clinicians, err := s.clinicians.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinicians: %w", err)
	}
	rows, err := s.repo.CountByStatus(ctx, &model.AppointmentFilters{Range: r})
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}

	byID := make(map[uuid.UUID]*model.ClinicianStats, len(clinicians))
	out := make([]*model.ClinicianStats, 0, len(clinicians))
	for _, c := range clinicians {
		cs := &model.ClinicianStats{ClinicianID: c.ID, ClinicianName: c.Name}
		byID[c.ID] = cs
		out = append(out, cs)
	}
	for _, row := range rows {
		cs, ok := byID[row.ClinicianID]
		if !ok {
			continue
		}
		cs.Total += row.Count
		switch row.Status {
		case model.AppointmentStatusCompleted:
			cs.Completed += row.Count
		case model.AppointmentStatusNoShow:
			cs.NoShow += row.Count
		}
	}
	for _, cs := range out {
		cs.AttendanceRate = AttendanceRate(cs.Total, cs.NoShow)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClinicianName < out[j].ClinicianName })
	return out, nil
}

// AttendanceRate is the share of appointments that were not missed, as a
// percentage rounded to one decimal. It is 0 when there are no appointments.
func AttendanceRate(total, noShow int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(total-noShow)/float64(total)*1000) / 10
}

func checkRange(r model.DateRange) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return apperrors.Validation("range", "start and end dates are required")
	}
	if r.End.Before(r.Start) {
		return apperrors.Validation("range", "end date is before start date")
	}
	return nil
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return fmt.Errorf("failed to get %s: %w", resource, err)
}
