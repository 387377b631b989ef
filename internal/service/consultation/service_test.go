package consultation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/cardio-api/internal/clinical"
	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/report"
	"github.com/jwalitptl/cardio-api/internal/repository"
	"github.com/jwalitptl/cardio-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
	"github.com/jwalitptl/cardio-api/pkg/logger"
	"github.com/jwalitptl/cardio-api/pkg/metrics"
)

type sentMail struct {
	to      string
	subject string
	att     report.Attachment
}

type fakeMailer struct {
	sent []sentMail
}

func (m *fakeMailer) SendReport(ctx context.Context, to, subject, body string, att report.Attachment) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, att: att})
	return nil
}

// failingRepository fails the named write step.
type failingRepository struct {
	repository.ConsultationRepository
	failOn string
}

var errDisk = errors.New("disk full")

func (r failingRepository) CreateAdultDetail(ctx context.Context, d *model.AdultDetail) error {
	if r.failOn == stepDetail {
		return errDisk
	}
	return r.ConsultationRepository.CreateAdultDetail(ctx, d)
}

func (r failingRepository) CreatePrescription(ctx context.Context, rx *model.Prescription) error {
	if r.failOn == stepPrescription {
		return errDisk
	}
	return r.ConsultationRepository.CreatePrescription(ctx, rx)
}

type fixture struct {
	svc       *Service
	store     *memory.Store
	archive   *report.FileArchive
	mailer    *fakeMailer
	metrics   *metrics.Metrics
	session   *model.Session
	clinician *model.Clinician
	child     *model.Patient
	adult     *model.Patient
}

var now = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	clinician := &model.Clinician{Name: "Ana Torres", Specialty: "Cardiology", Email: "ana@example.com"}
	user := &model.User{Username: "atorres", Role: model.RoleClinician}
	require.NoError(t, store.Clinicians().CreateWithUser(ctx, clinician, user))

	guardian := "María Pérez"
	child := &model.Patient{
		Name:      "Lucas Pérez",
		BirthDate: time.Date(2018, 3, 10, 0, 0, 0, 0, time.UTC),
		Pediatric: true,
		Contact:   "+16502530000",
		Guardian:  &guardian,
	}
	require.NoError(t, store.Patients().Create(ctx, child))
	adult := &model.Patient{
		Name:      "Jorge Ruiz",
		BirthDate: time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC),
		Contact:   "+16502530001",
	}
	require.NoError(t, store.Patients().Create(ctx, adult))

	archive, err := report.NewFileArchive(t.TempDir())
	require.NoError(t, err)

	mailer := &fakeMailer{}
	m := metrics.New("test", nil)
	svc := NewService(Deps{
		Consultations: store.Consultations(),
		Patients:      store.Patients(),
		Clinicians:    store.Clinicians(),
		Appointments:  store.Appointments(),
		Renderer:      report.NewRenderer("Heart Clinic"),
		Archive:       archive,
		Mailer:        mailer,
		Metrics:       m,
		Logger:        logger.Nop(),
	})
	svc.now = func() time.Time { return now }

	return &fixture{
		svc:       svc,
		store:     store,
		archive:   archive,
		mailer:    mailer,
		metrics:   m,
		session:   &model.Session{ID: uuid.New(), UserID: user.ID, Role: model.RoleClinician, ClinicianID: &clinician.ID},
		clinician: clinician,
		child:     child,
		adult:     adult,
	}
}

func pediatricRequest(patientID uuid.UUID) *model.CreateConsultationRequest {
	return &model.CreateConsultationRequest{
		PatientID:      patientID,
		Vitals:         clinical.Vitals{HeartRate: 110, Systolic: 100, Diastolic: 65, Saturation: 97},
		ChiefComplaint: "Heart murmur",
		Diagnosis:      "Innocent murmur",
		Pediatric: &model.PediatricInput{
			WeightKg: 20, HeightCm: 105,
			AorticMm: 14, PulmonicMm: 13, MitralMm: 17, TricuspidMm: 19,
		},
		ExamOrders: []model.ExamOrderInput{{ExamType: "Chest X-Ray", Instructions: "PA view"}},
	}
}

func adultRequest(patientID uuid.UUID) *model.CreateConsultationRequest {
	return &model.CreateConsultationRequest{
		PatientID:      patientID,
		Vitals:         clinical.Vitals{HeartRate: 72, Systolic: 150, Diastolic: 95, Saturation: 98},
		ChiefComplaint: "Chest pain",
		Diagnosis:      "Stage 2 hypertension",
		Adult: &model.AdultInput{
			Sex:              clinical.SexMale,
			Diabetes:         true,
			Smoking:          clinical.SmokingActive,
			TotalCholesterol: 250,
			HDL:              35,
		},
		Prescriptions: []model.PrescriptionInput{
			{Drug: "Enalapril", Dose: "10 mg", Frequency: "every 12 hours", Duration: "30 days"},
			{Drug: "Aspirin", Dose: "100 mg", Frequency: "daily", Duration: "30 days", Notes: "After lunch"},
		},
	}
}

func TestCreatePediatric(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.session, pediatricRequest(f.child.ID))
	require.NoError(t, err)

	id := res.Consultation.ID
	assert.Equal(t, []string{"tachycardia"}, []string(res.Consultation.Alerts))
	require.NotNil(t, res.Pediatric)
	assert.Nil(t, res.Adult)
	assert.Equal(t, 0.769, res.Pediatric.BodySurfaceArea)
	assert.Equal(t, clinical.P75, res.Pediatric.WeightPercentile)
	assert.Equal(t, clinical.P50, res.Pediatric.HeightPercentile)
	assert.Equal(t, model.DuctusClosed, res.Pediatric.DuctusStatus)
	assert.Nil(t, res.Pediatric.DuctusSizeMm)

	_, err = f.store.Consultations().GetPediatricDetail(ctx, id)
	assert.NoError(t, err)
	_, err = f.store.Consultations().GetAdultDetail(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	orders, err := f.store.Consultations().ListExamOrders(ctx, id)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	assert.Equal(t, report.FileName(f.child.Name, f.child.ID, now), res.ReportFile)
	names, err := f.archive.List(report.Prefix(f.child.Name, f.child.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{res.ReportFile}, names)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ConsultationsSaved.WithLabelValues("pediatric")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.VitalAlerts.WithLabelValues("tachycardia")))
}

func TestCreateAdult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.session, adultRequest(f.adult.ID))
	require.NoError(t, err)

	id := res.Consultation.ID
	require.NotNil(t, res.Adult)
	assert.Nil(t, res.Pediatric)
	assert.Equal(t, 10.5, res.Adult.ScoreRisk)
	assert.Equal(t, 13.0, res.Adult.FraminghamRisk)
	assert.Equal(t, clinical.RiskHigh, res.Adult.RiskClass)
	assert.Equal(t, []string{"hypertension"}, []string(res.Consultation.Alerts))

	_, err = f.store.Consultations().GetAdultDetail(ctx, id)
	assert.NoError(t, err)
	_, err = f.store.Consultations().GetPediatricDetail(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	rx, err := f.store.Consultations().ListPrescriptions(ctx, id)
	require.NoError(t, err)
	assert.Len(t, rx, 2)

	patient, err := f.store.Patients().Get(ctx, f.adult.ID)
	require.NoError(t, err)
	require.NotNil(t, patient.Sex)
	assert.Equal(t, clinical.SexMale, *patient.Sex)
}

func TestCreateAdultUsesRegisteredSex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := adultRequest(f.adult.ID)
	req.Adult.Sex = ""
	_, err := f.svc.Create(ctx, f.session, req)
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, f.store.Patients().SetSex(ctx, f.adult.ID, "F"))
	res, err := f.svc.Create(ctx, f.session, req)
	require.NoError(t, err)
	assert.Equal(t, 9.5, res.Adult.ScoreRisk)
}

func TestCreateValidatesBeforeWriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	noComplaint := pediatricRequest(f.child.ID)
	noComplaint.ChiefComplaint = "  "

	both := pediatricRequest(f.child.ID)
	both.Adult = adultRequest(f.child.ID).Adult

	neither := pediatricRequest(f.child.ID)
	neither.Pediatric = nil

	wrongVariant := adultRequest(f.child.ID)

	badWeight := pediatricRequest(f.child.ID)
	badWeight.Pediatric.WeightKg = 0

	badOrder := pediatricRequest(f.child.ID)
	badOrder.ExamOrders = []model.ExamOrderInput{{Instructions: "no type"}}

	cases := []struct {
		name  string
		req   *model.CreateConsultationRequest
		check func(error) bool
	}{
		{"missing chief complaint", noComplaint, apperrors.IsValidation},
		{"both variants", both, apperrors.IsValidation},
		{"no variant", neither, apperrors.IsValidation},
		{"adult detail for pediatric patient", wrongVariant, apperrors.IsValidation},
		{"non-positive weight", badWeight, apperrors.IsDomain},
		{"exam order without type", badOrder, apperrors.IsValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.session, tc.req)
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error: %v", err)
		})
	}

	history, err := f.store.Consultations().ListByPatient(ctx, f.child.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCreatePartialWrite(t *testing.T) {
	for _, step := range []string{stepDetail, stepPrescription} {
		t.Run(step, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.svc.repo = failingRepository{ConsultationRepository: f.store.Consultations(), failOn: step}

			_, err := f.svc.Create(ctx, f.session, adultRequest(f.adult.ID))
			require.Error(t, err)
			assert.True(t, apperrors.IsPersistence(err))
			assert.ErrorIs(t, err, errDisk)

			appErr, _ := apperrors.As(err)
			assert.Equal(t, step, appErr.Entity)

			history, err := f.store.Consultations().ListByPatient(ctx, f.adult.ID)
			require.NoError(t, err)
			require.Len(t, history, 1, "the consultation row is kept")
			assert.Equal(t, history[0].ID.String(), appErr.Value)

			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PartialWrites.WithLabelValues(step)))
		})
	}
}

func TestCreateResolvesClinician(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reception := &model.Session{ID: uuid.New(), UserID: uuid.New(), Role: model.RoleReception}

	_, err := f.svc.Create(ctx, reception, pediatricRequest(f.child.ID))
	assert.True(t, apperrors.IsValidation(err))

	req := pediatricRequest(f.child.ID)
	req.ClinicianID = &f.clinician.ID
	res, err := f.svc.Create(ctx, reception, req)
	require.NoError(t, err)
	assert.Equal(t, f.clinician.ID, res.Consultation.ClinicianID)

	req = pediatricRequest(uuid.New())
	_, err = f.svc.Create(ctx, f.session, req)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateChecksAppointmentPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appointment := &model.Appointment{
		PatientID: f.adult.ID, ClinicianID: f.clinician.ID,
		ScheduledAt: now, Status: model.AppointmentStatusInConsultation,
	}
	require.NoError(t, f.store.Appointments().Create(ctx, appointment))

	req := pediatricRequest(f.child.ID)
	req.AppointmentID = &appointment.ID
	_, err := f.svc.Create(ctx, f.session, req)
	assert.True(t, apperrors.IsValidation(err))

	req = adultRequest(f.adult.ID)
	req.AppointmentID = &appointment.ID
	res, err := f.svc.Create(ctx, f.session, req)
	require.NoError(t, err)
	assert.Equal(t, appointment.ID, *res.Consultation.AppointmentID)
}

func TestTriage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Triage(ctx, f.session, &model.TriageRequest{
		PatientID: f.adult.ID,
		Vitals:    clinical.Vitals{HeartRate: 50, Systolic: 85, Diastolic: 55, Saturation: 92},
	})
	require.NoError(t, err)
	assert.Equal(t, "Triage", c.ChiefComplaint)
	assert.Equal(t, []string{"bradycardia", "hypotension", "low saturation"}, []string(c.Alerts))

	_, err = f.store.Consultations().GetAdultDetail(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.store.Consultations().GetPediatricDetail(ctx, c.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReadSide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.session, adultRequest(f.adult.ID))
	require.NoError(t, err)
	f.svc.now = func() time.Time { return now.Add(24 * time.Hour) }
	second, err := f.svc.Create(ctx, f.session, adultRequest(f.adult.ID))
	require.NoError(t, err)

	history, err := f.svc.ListByPatient(ctx, f.adult.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.Consultation.ID, history[0].ID)
	assert.Equal(t, "Ana Torres", history[0].ClinicianName)

	bundle, err := f.svc.Get(ctx, first.Consultation.ID)
	require.NoError(t, err)
	assert.NotNil(t, bundle.Adult)
	assert.Len(t, bundle.Prescriptions, 2)

	pdf, name, err := f.svc.Report(ctx, first.Consultation.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ReportFile, name)
	archived, err := f.archive.Open(name)
	require.NoError(t, err)
	assert.Equal(t, archived, pdf, "re-rendering reproduces the archived report")

	reports, err := f.svc.ListReports(ctx, f.adult.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{second.ReportFile, first.ReportFile}, reports)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestEmailReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.session, pediatricRequest(f.child.ID))
	require.NoError(t, err)

	to, err := f.svc.EmailReport(ctx, f.session, res.Consultation.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", to)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, res.ReportFile, f.mailer.sent[0].att.Name)
	assert.Contains(t, f.mailer.sent[0].subject, "Lucas Pérez")
}
