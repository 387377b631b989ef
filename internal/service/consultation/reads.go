package consultation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/report"
	"github.com/jwalitptl/cardio-api/internal/repository"
	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
)

// Get loads a consultation with its patient, clinician, detail record,
// exam orders and prescriptions.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.ConsultationBundle, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, lookupError("consultation", err)
	}
	patient, err := s.patients.Get(ctx, c.PatientID)
	if err != nil {
		return nil, lookupError("patient", err)
	}
	clinician, err := s.clinicians.Get(ctx, c.ClinicianID)
	if err != nil {
		return nil, lookupError("clinician", err)
	}

	b := &model.ConsultationBundle{Consultation: c, Patient: patient, Clinician: clinician}

	if b.Pediatric, err = s.repo.GetPediatricDetail(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get pediatric detail: %w", err)
	}
	if b.Adult, err = s.repo.GetAdultDetail(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get adult detail: %w", err)
	}
	if b.ExamOrders, err = s.repo.ListExamOrders(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list exam orders: %w", err)
	}
	if b.Prescriptions, err = s.repo.ListPrescriptions(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return b, nil
}

// ListByPatient returns the patient's history, most recent first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, lookupError("patient", err)
	}
	consultations, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

// Report renders the consultation's report again from the stored record.
func (s *Service) Report(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return s.render(b)
}

func (s *Service) render(b *model.ConsultationBundle) ([]byte, string, error) {
	pdf, err := s.renderer.Render(b)
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}
	return pdf, report.FileName(b.Patient.Name, b.Patient.ID, b.Consultation.ConsultedAt), nil
}

// ListReports returns the archived report files of a patient, newest first.
func (s *Service) ListReports(ctx context.Context, patientID uuid.UUID) ([]string, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, lookupError("patient", err)
	}
	names, err := s.archive.List(report.Prefix(patient.Name, patient.ID))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return names, nil
}

// EmailReport sends the consultation's report to to, or to the signing
// clinician when to is empty.
func (s *Service) EmailReport(ctx context.Context, session *model.Session, id uuid.UUID, to string) (string, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	pdf, name, err := s.render(b)
	if err != nil {
		return "", err
	}
	if to == "" {
		to = b.Clinician.Email
	}

	subject := fmt.Sprintf("Cardiology report - %s - %s", b.Patient.Name, b.Consultation.ConsultedAt.Format("2006-01-02"))
	body := fmt.Sprintf("Attached is the consultation report for %s signed by Dr. %s.", b.Patient.Name, b.Clinician.Name)
	if err := s.mailer.SendReport(ctx, to, subject, body, report.Attachment{Name: name, Data: pdf}); err != nil {
		if errors.Is(err, report.ErrMailerDisabled) {
			return "", apperrors.Validation("email", err.Error())
		}
		return "", apperrors.Internal(err)
	}

	s.auditor.Log(ctx, session.UserID, model.AuditActionEmail, model.AuditEntityConsultation, id, nil)
	return to, nil
}
