package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/cardio-api/internal/clinical"
	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/report"
	"github.com/jwalitptl/cardio-api/internal/repository"
	"github.com/jwalitptl/cardio-api/internal/service/audit"
	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
	"github.com/jwalitptl/cardio-api/pkg/metrics"
	"github.com/jwalitptl/cardio-api/pkg/validator"
)

const (
	triageComplaint = "Triage"
	triageHistory   = "Triage record"
)

// Workflow steps, in write order. A failure names the step that failed.
const (
	stepConsultation = "consultation"
	stepDetail       = "detail"
	stepExamOrder    = "exam_order"
	stepPrescription = "prescription"
	stepPatientSex   = "patient_sex"
	stepReport       = "report"
	stepArchive      = "report_archive"
)

type Renderer interface {
	Render(b *model.ConsultationBundle) ([]byte, error)
}

type Archive interface {
	Save(name string, data []byte) error
	Open(name string) ([]byte, error)
	List(prefix string) ([]string, error)
}

type Mailer interface {
	SendReport(ctx context.Context, to, subject, body string, att report.Attachment) error
}

type Service struct {
	repo         repository.ConsultationRepository
	patients     repository.PatientRepository
	clinicians   repository.ClinicianRepository
	appointments repository.AppointmentRepository
	renderer     Renderer
	archive      Archive
	mailer       Mailer
	validate     validator.Validator
	metrics      *metrics.Metrics
	auditor      *audit.Service
	logger       zerolog.Logger
	now          func() time.Time
}

type Deps struct {
	Consultations repository.ConsultationRepository
	Patients      repository.PatientRepository
	Clinicians    repository.ClinicianRepository
	Appointments  repository.AppointmentRepository
	Renderer      Renderer
	Archive       Archive
	Mailer        Mailer
	Metrics       *metrics.Metrics
	Auditor       *audit.Service
	Logger        zerolog.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		repo:         d.Consultations,
		patients:     d.Patients,
		clinicians:   d.Clinicians,
		appointments: d.Appointments,
		renderer:     d.Renderer,
		archive:      d.Archive,
		mailer:       d.Mailer,
		validate:     validator.New(),
		metrics:      d.Metrics,
		auditor:      d.Auditor,
		logger:       d.Logger.With().Str("service", "consultation").Logger(),
		now:          time.Now,
	}
}

// Create records a full consultation. Every input is validated and every
// derived value computed before the first write; writes then happen in the
// order consultation, detail, exam orders, prescriptions, patient sex,
// report. Writes are not rolled back: a failure after the consultation row
// exists returns a Persistence error naming the failed step and carrying the
// consultation ID.
func (s *Service) Create(ctx context.Context, session *model.Session, req *model.CreateConsultationRequest) (*model.ConsultationResult, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ChiefComplaint) == "" {
		return nil, apperrors.Validation("chief_complaint", "chief_complaint is required")
	}
	input := req.Detail()
	if input == nil {
		return nil, apperrors.Validation("detail", "exactly one of pediatric or adult must be provided")
	}

	clinician, patient, err := s.participants(ctx, session, req.ClinicianID, req.PatientID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAppointment(ctx, req.AppointmentID, patient.ID); err != nil {
		return nil, err
	}

	consultedAt := s.now().Truncate(time.Microsecond)
	alerts := clinical.ValidateVitals(req.Vitals)

	var (
		pediatric *model.PediatricDetail
		adult     *model.AdultDetail
		backfill  clinical.Sex
	)
	switch in := input.(type) {
	case model.PediatricInput:
		if !patient.Pediatric {
			return nil, apperrors.Validation("pediatric", "patient is registered as adult")
		}
		if pediatric, err = buildPediatric(in, patient, consultedAt); err != nil {
			return nil, err
		}
	case model.AdultInput:
		if patient.Pediatric {
			return nil, apperrors.Validation("adult", "patient is registered as pediatric")
		}
		if adult, err = buildAdult(in, patient, req.Vitals, consultedAt); err != nil {
			return nil, err
		}
		if in.Sex != "" && (patient.Sex == nil || *patient.Sex != in.Sex) {
			backfill = in.Sex
		}
	}

	c := &model.Consultation{
		PatientID:      patient.ID,
		ClinicianID:    clinician.ID,
		AppointmentID:  req.AppointmentID,
		ConsultedAt:    consultedAt,
		ChiefComplaint: strings.TrimSpace(req.ChiefComplaint),
		History:        req.History,
		Diagnosis:      req.Diagnosis,
		Vitals:         req.Vitals,
		PhysicalExam:   req.PhysicalExam,
		Studies:        req.Studies,
		Alerts:         clinical.AlertStrings(alerts),
		ClinicianName:  clinician.Name,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperrors.Persistence(stepConsultation, "", err)
	}

	bundle := &model.ConsultationBundle{
		Consultation:  c,
		Patient:       patient,
		Clinician:     clinician,
		ExamOrders:    make([]*model.ExamOrder, 0, len(req.ExamOrders)),
		Prescriptions: make([]*model.Prescription, 0, len(req.Prescriptions)),
	}

	if pediatric != nil {
		pediatric.ConsultationID = c.ID
		if err := s.repo.CreatePediatricDetail(ctx, pediatric); err != nil {
			return nil, s.partial(stepDetail, c.ID, err)
		}
		bundle.Pediatric = pediatric
	}
	if adult != nil {
		adult.ConsultationID = c.ID
		if err := s.repo.CreateAdultDetail(ctx, adult); err != nil {
			return nil, s.partial(stepDetail, c.ID, err)
		}
		bundle.Adult = adult
	}

	for _, in := range req.ExamOrders {
		order := &model.ExamOrder{ConsultationID: c.ID, ExamType: in.ExamType, Instructions: in.Instructions}
		if err := s.repo.CreateExamOrder(ctx, order); err != nil {
			return nil, s.partial(stepExamOrder, c.ID, err)
		}
		bundle.ExamOrders = append(bundle.ExamOrders, order)
	}

	for _, in := range req.Prescriptions {
		rx := &model.Prescription{
			ConsultationID: c.ID,
			Drug:           in.Drug,
			Dose:           in.Dose,
			Frequency:      in.Frequency,
			Duration:       in.Duration,
			Notes:          in.Notes,
		}
		if err := s.repo.CreatePrescription(ctx, rx); err != nil {
			return nil, s.partial(stepPrescription, c.ID, err)
		}
		bundle.Prescriptions = append(bundle.Prescriptions, rx)
	}

	if backfill != "" {
		if err := s.patients.SetSex(ctx, patient.ID, string(backfill)); err != nil {
			return nil, s.partial(stepPatientSex, c.ID, err)
		}
		patient.Sex = &backfill
	}

	file, err := s.renderAndArchive(bundle)
	if err != nil {
		return nil, err
	}

	kind := "adult"
	if pediatric != nil {
		kind = "pediatric"
	}
	s.metrics.ConsultationsSaved.WithLabelValues(kind).Inc()
	s.countAlerts(alerts)
	s.auditor.Log(ctx, session.UserID, model.AuditActionCreate, model.AuditEntityConsultation, c.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"patient_id": patient.ID, "type": kind, "alerts": c.Alerts},
	})

	return &model.ConsultationResult{ConsultationBundle: *bundle, ReportFile: file}, nil
}

// Triage records vitals taken before the consultation proper. It creates a
// consultation row with no detail record and returns the vital-sign alerts.
func (s *Service) Triage(ctx context.Context, session *model.Session, req *model.TriageRequest) (*model.Consultation, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	clinician, patient, err := s.participants(ctx, session, req.ClinicianID, req.PatientID)
	if err != nil {
		return nil, err
	}

	complaint := strings.TrimSpace(req.ChiefComplaint)
	if complaint == "" {
		complaint = triageComplaint
	}
	alerts := clinical.ValidateVitals(req.Vitals)

	c := &model.Consultation{
		PatientID:      patient.ID,
		ClinicianID:    clinician.ID,
		ConsultedAt:    s.now().Truncate(time.Microsecond),
		ChiefComplaint: complaint,
		History:        triageHistory,
		Vitals:         req.Vitals,
		Alerts:         clinical.AlertStrings(alerts),
		ClinicianName:  clinician.Name,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperrors.Persistence(stepConsultation, "", err)
	}

	s.metrics.ConsultationsSaved.WithLabelValues("triage").Inc()
	s.countAlerts(alerts)
	s.auditor.Log(ctx, session.UserID, model.AuditActionCreate, model.AuditEntityConsultation, c.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"patient_id": patient.ID, "type": "triage", "alerts": c.Alerts},
	})
	return c, nil
}

// participants resolves the acting clinician and the patient. A clinician's
// own session always signs as that clinician; other roles must name one.
func (s *Service) participants(ctx context.Context, session *model.Session, requested *uuid.UUID, patientID uuid.UUID) (*model.Clinician, *model.Patient, error) {
	var clinicianID uuid.UUID
	switch {
	case session.ClinicianID != nil:
		clinicianID = *session.ClinicianID
	case requested != nil && *requested != uuid.Nil:
		clinicianID = *requested
	default:
		return nil, nil, apperrors.Validation("clinician_id", "clinician_id is required")
	}

	clinician, err := s.clinicians.Get(ctx, clinicianID)
	if err != nil {
		return nil, nil, lookupError("clinician", err)
	}
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, nil, lookupError("patient", err)
	}
	return clinician, patient, nil
}

func (s *Service) checkAppointment(ctx context.Context, id *uuid.UUID, patientID uuid.UUID) error {
	if id == nil {
		return nil
	}
	appointment, err := s.appointments.Get(ctx, *id)
	if err != nil {
		return lookupError("appointment", err)
	}
	if appointment.PatientID != patientID {
		return apperrors.Validation("appointment_id", "appointment belongs to another patient")
	}
	return nil
}

func (s *Service) renderAndArchive(b *model.ConsultationBundle) (string, error) {
	id := b.Consultation.ID

	start := time.Now()
	pdf, err := s.renderer.Render(b)
	s.metrics.ReportDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", s.partial(stepReport, id, err)
	}

	name := report.FileName(b.Patient.Name, b.Patient.ID, b.Consultation.ConsultedAt)
	if err := s.archive.Save(name, pdf); err != nil {
		return "", s.partial(stepArchive, id, err)
	}
	return name, nil
}

func (s *Service) partial(step string, id uuid.UUID, err error) error {
	s.metrics.PartialWrites.WithLabelValues(step).Inc()
	s.logger.Error().Err(err).
		Str("step", step).
		Str("consultation_id", id.String()).
		Msg("consultation saved partially")
	return apperrors.Persistence(step, id.String(), err)
}

func (s *Service) countAlerts(alerts []clinical.Alert) {
	for _, a := range alerts {
		s.metrics.VitalAlerts.WithLabelValues(string(a)).Inc()
	}
}

func lookupError(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return fmt.Errorf("failed to get %s: %w", resource, err)
}
