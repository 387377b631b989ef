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

type consultationRepository struct {
	db *sqlx.DB
}

func NewConsultationRepository(db *sqlx.DB) repository.ConsultationRepository {
	return &consultationRepository{db: db}
}

const consultationColumns = `
	c.id, c.patient_id, c.clinician_id, c.appointment_id, c.consulted_at,
	c.chief_complaint, c.history, c.diagnosis,
	c.heart_rate, c.systolic, c.diastolic, c.spo2,
	c.exam_general, c.exam_cardiovascular, c.exam_respiratory, c.exam_other,
	c.ecg_findings, c.echo_findings, c.alerts, c.created_at,
	cl.name AS clinician_name`

func (r *consultationRepository) Create(ctx context.Context, c *model.Consultation) error {
	query := `
		INSERT INTO consultations (
			id, patient_id, clinician_id, appointment_id, consulted_at,
			chief_complaint, history, diagnosis,
			heart_rate, systolic, diastolic, spo2,
			exam_general, exam_cardiovascular, exam_respiratory, exam_other,
			ecg_findings, echo_findings, alerts, created_at
		) VALUES (
			:id, :patient_id, :clinician_id, :appointment_id, :consulted_at,
			:chief_complaint, :history, :diagnosis,
			:heart_rate, :systolic, :diastolic, :spo2,
			:exam_general, :exam_cardiovascular, :exam_respiratory, :exam_other,
			:ecg_findings, :echo_findings, :alerts, :created_at
		)
	`
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("failed to create consultation: %w", mapError(err))
	}
	return nil
}

func (r *consultationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	query := `SELECT ` + consultationColumns + `
		FROM consultations c
		JOIN clinicians cl ON cl.id = c.clinician_id
		WHERE c.id = $1`

	var c model.Consultation
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", mapError(err))
	}
	return &c, nil
}

func (r *consultationRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	query := `SELECT ` + consultationColumns + `
		FROM consultations c
		JOIN clinicians cl ON cl.id = c.clinician_id
		WHERE c.patient_id = $1
		ORDER BY c.consulted_at DESC, c.created_at DESC`

	var consultations []*model.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) CreatePediatricDetail(ctx context.Context, d *model.PediatricDetail) error {
	query := `
		INSERT INTO pediatric_details (
			id, consultation_id, weight_kg, height_cm, body_surface_area,
			weight_percentile, height_percentile,
			aortic_mm, pulmonic_mm, mitral_mm, tricuspid_mm,
			aortic_z, pulmonic_z, mitral_z, tricuspid_z,
			ductus_status, ductus_size_mm, created_at
		) VALUES (
			:id, :consultation_id, :weight_kg, :height_cm, :body_surface_area,
			:weight_percentile, :height_percentile,
			:aortic_mm, :pulmonic_mm, :mitral_mm, :tricuspid_mm,
			:aortic_z, :pulmonic_z, :mitral_z, :tricuspid_z,
			:ductus_status, :ductus_size_mm, :created_at
		)
	`
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("failed to create pediatric detail: %w", mapError(err))
	}
	return nil
}

func (r *consultationRepository) CreateAdultDetail(ctx context.Context, d *model.AdultDetail) error {
	query := `
		INSERT INTO adult_details (
			id, consultation_id, hypertension, diabetes, smoking,
			total_cholesterol, hdl, score_risk, framingham_risk, risk_class, created_at
		) VALUES (
			:id, :consultation_id, :hypertension, :diabetes, :smoking,
			:total_cholesterol, :hdl, :score_risk, :framingham_risk, :risk_class, :created_at
		)
	`
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()

	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("failed to create adult detail: %w", mapError(err))
	}
	return nil
}

func (r *consultationRepository) GetPediatricDetail(ctx context.Context, consultationID uuid.UUID) (*model.PediatricDetail, error) {
	var d model.PediatricDetail
	err := r.db.GetContext(ctx, &d, `SELECT * FROM pediatric_details WHERE consultation_id = $1`, consultationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pediatric detail: %w", mapError(err))
	}
	return &d, nil
}

func (r *consultationRepository) GetAdultDetail(ctx context.Context, consultationID uuid.UUID) (*model.AdultDetail, error) {
	var d model.AdultDetail
	err := r.db.GetContext(ctx, &d, `SELECT * FROM adult_details WHERE consultation_id = $1`, consultationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get adult detail: %w", mapError(err))
	}
	return &d, nil
}

func (r *consultationRepository) CreateExamOrder(ctx context.Context, o *model.ExamOrder) error {
	query := `
		INSERT INTO exam_orders (id, consultation_id, exam_type, instructions, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, o.ID, o.ConsultationID, o.ExamType, o.Instructions, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create exam order: %w", mapError(err))
	}
	return nil
}

func (r *consultationRepository) ListExamOrders(ctx context.Context, consultationID uuid.UUID) ([]*model.ExamOrder, error) {
	query := `
		SELECT id, consultation_id, exam_type, instructions, created_at
		FROM exam_orders
		WHERE consultation_id = $1
		ORDER BY created_at ASC, id ASC
	`
	var orders []*model.ExamOrder
	if err := r.db.SelectContext(ctx, &orders, query, consultationID); err != nil {
		return nil, fmt.Errorf("failed to list exam orders: %w", err)
	}
	return orders, nil
}

func (r *consultationRepository) CreatePrescription(ctx context.Context, rx *model.Prescription) error {
	query := `
		INSERT INTO prescriptions (id, consultation_id, drug, dose, frequency, duration, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if rx.ID == uuid.Nil {
		rx.ID = uuid.New()
	}
	rx.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		rx.ID,
		rx.ConsultationID,
		rx.Drug,
		rx.Dose,
		rx.Frequency,
		rx.Duration,
		rx.Notes,
		rx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prescription: %w", mapError(err))
	}
	return nil
}

func (r *consultationRepository) ListPrescriptions(ctx context.Context, consultationID uuid.UUID) ([]*model.Prescription, error) {
	query := `
		SELECT id, consultation_id, drug, dose, frequency, duration, notes, created_at
		FROM prescriptions
		WHERE consultation_id = $1
		ORDER BY created_at ASC, id ASC
	`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, consultationID); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return prescriptions, nil
}
