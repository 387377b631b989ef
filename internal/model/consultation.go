package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/cardio-api/internal/clinical"
)

type PhysicalExam struct {
	General        string `json:"general" db:"exam_general"`
	Cardiovascular string `json:"cardiovascular" db:"exam_cardiovascular"`
	Respiratory    string `json:"respiratory" db:"exam_respiratory"`
	Other          string `json:"other" db:"exam_other"`
}

// Studies holds findings of tests done during the visit.
type Studies struct {
	ECG  string `json:"ecg" db:"ecg_findings"`
	Echo string `json:"echo" db:"echo_findings"`
}

// Consultation is append-only; it is never updated after creation.
type Consultation struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	PatientID      uuid.UUID  `json:"patient_id" db:"patient_id"`
	ClinicianID    uuid.UUID  `json:"clinician_id" db:"clinician_id"`
	AppointmentID  *uuid.UUID `json:"appointment_id,omitempty" db:"appointment_id"`
	ConsultedAt    time.Time  `json:"consulted_at" db:"consulted_at"`
	ChiefComplaint string     `json:"chief_complaint" db:"chief_complaint"`
	History        string     `json:"history" db:"history"`
	Diagnosis      string     `json:"diagnosis" db:"diagnosis"`
	clinical.Vitals
	PhysicalExam
	Studies
	Alerts        pq.StringArray `json:"alerts" db:"alerts"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	ClinicianName string         `json:"clinician_name,omitempty" db:"clinician_name"`
}

type ExamOrder struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ConsultationID uuid.UUID `json:"consultation_id" db:"consultation_id"`
	ExamType       string    `json:"exam_type" db:"exam_type"`
	Instructions   string    `json:"instructions" db:"instructions"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Suggested external exams offered by the consultation form.
var SuggestedExamTypes = []string{
	"Complete Lab Panel",
	"Lipid Profile",
	"Chest X-Ray",
	"Stress Test",
	"24h Ambulatory Blood Pressure",
	"Cardiac MRI",
}

type Prescription struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ConsultationID uuid.UUID `json:"consultation_id" db:"consultation_id"`
	Drug           string    `json:"drug" db:"drug"`
	Dose           string    `json:"dose" db:"dose"`
	Frequency      string    `json:"frequency" db:"frequency"`
	Duration       string    `json:"duration" db:"duration"`
	Notes          string    `json:"notes" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type ExamOrderInput struct {
	ExamType     string `json:"exam_type" validate:"required"`
	Instructions string `json:"instructions"`
}

type PrescriptionInput struct {
	Drug      string `json:"drug" validate:"required"`
	Dose      string `json:"dose"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Notes     string `json:"notes"`
}

// CreateConsultationRequest carries exactly one of Pediatric or Adult.
type CreateConsultationRequest struct {
	PatientID      uuid.UUID           `json:"patient_id" validate:"required"`
	ClinicianID    *uuid.UUID          `json:"clinician_id"`
	AppointmentID  *uuid.UUID          `json:"appointment_id"`
	Vitals         clinical.Vitals     `json:"vitals"`
	ChiefComplaint string              `json:"chief_complaint"`
	History        string              `json:"history"`
	Diagnosis      string              `json:"diagnosis"`
	PhysicalExam   PhysicalExam        `json:"physical_exam"`
	Studies        Studies             `json:"studies"`
	Pediatric      *PediatricInput     `json:"pediatric,omitempty"`
	Adult          *AdultInput         `json:"adult,omitempty"`
	ExamOrders     []ExamOrderInput    `json:"exam_orders" validate:"dive"`
	Prescriptions  []PrescriptionInput `json:"prescriptions" validate:"dive"`
}

// Detail returns the single detail variant present on the request.
func (r *CreateConsultationRequest) Detail() DetailInput {
	switch {
	case r.Pediatric != nil && r.Adult == nil:
		return *r.Pediatric
	case r.Adult != nil && r.Pediatric == nil:
		return *r.Adult
	default:
		return nil
	}
}

// TriageRequest records vitals before a full consultation.
type TriageRequest struct {
	PatientID      uuid.UUID       `json:"patient_id" validate:"required"`
	ClinicianID    *uuid.UUID      `json:"clinician_id"`
	Vitals         clinical.Vitals `json:"vitals"`
	ChiefComplaint string          `json:"chief_complaint"`
}

// ConsultationBundle is a consultation with everything attached to it.
type ConsultationBundle struct {
	Consultation  *Consultation    `json:"consultation"`
	Patient       *Patient         `json:"patient"`
	Clinician     *Clinician       `json:"clinician"`
	Pediatric     *PediatricDetail `json:"pediatric,omitempty"`
	Adult         *AdultDetail     `json:"adult,omitempty"`
	ExamOrders    []*ExamOrder     `json:"exam_orders"`
	Prescriptions []*Prescription  `json:"prescriptions"`
}

type ConsultationResult struct {
	ConsultationBundle
	ReportFile string `json:"report_file,omitempty"`
}
