package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/cardio-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleStatus is returned when a compare-and-set status update finds
	// the row in a different status than expected.
	ErrStaleStatus = errors.New("status changed concurrently")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	}

	ClinicianRepository interface {
		// CreateWithUser inserts the clinician and its login user together.
		CreateWithUser(ctx context.Context, clinician *model.Clinician, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error)
		List(ctx context.Context) ([]*model.Clinician, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		// SetSex back-fills the patient's sex from a consultation.
		SetSex(ctx context.Context, id uuid.UUID, sex string) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	}

	AppointmentRepository interface {
		// Create fails with ErrDuplicate when the clinician already has an
		// appointment at exactly the same timestamp.
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		ExistsAt(ctx context.Context, clinicianID uuid.UUID, at time.Time) (bool, error)
		// SetStatus moves the appointment from one status to another and
		// fails with ErrStaleStatus when the stored status is not from.
		SetStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error
		Find(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		CountByStatus(ctx context.Context, filters *model.AppointmentFilters) ([]model.StatusCount, error)
	}

	ConsultationRepository interface {
		Create(ctx context.Context, consultation *model.Consultation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
		// ListByPatient returns consultations most recent first.
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error)

		CreatePediatricDetail(ctx context.Context, detail *model.PediatricDetail) error
		CreateAdultDetail(ctx context.Context, detail *model.AdultDetail) error
		GetPediatricDetail(ctx context.Context, consultationID uuid.UUID) (*model.PediatricDetail, error)
		GetAdultDetail(ctx context.Context, consultationID uuid.UUID) (*model.AdultDetail, error)

		CreateExamOrder(ctx context.Context, order *model.ExamOrder) error
		ListExamOrders(ctx context.Context, consultationID uuid.UUID) ([]*model.ExamOrder, error)
		CreatePrescription(ctx context.Context, rx *model.Prescription) error
		ListPrescriptions(ctx context.Context, consultationID uuid.UUID) ([]*model.Prescription, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error)
		// DeleteBefore removes entries created before cutoff and reports how
		// many were removed.
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
)
