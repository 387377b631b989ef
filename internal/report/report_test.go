package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/cardio-api/internal/clinical"
	"github.com/jwalitptl/cardio-api/internal/config"
	"github.com/jwalitptl/cardio-api/internal/model"
)

func testBundle() *model.ConsultationBundle {
	patientID := uuid.MustParse("3f2b9c1e-7a44-4f0e-9b1d-2c5e8a6f0d11")
	consultedAt := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	guardian := "María Pérez"
	return &model.ConsultationBundle{
		Consultation: &model.Consultation{
			ID:             uuid.MustParse("9a1d2e3f-4b5c-4d6e-8f70-112233445566"),
			PatientID:      patientID,
			ConsultedAt:    consultedAt,
			ChiefComplaint: "Heart murmur",
			History:        "Murmur detected at school check-up.",
			Diagnosis:      "Small restrictive ductus",
			Vitals:         clinical.Vitals{HeartRate: 110, Systolic: 100, Diastolic: 65, Saturation: 97},
			PhysicalExam:   model.PhysicalExam{Cardiovascular: "Grade II/VI continuous murmur"},
			Alerts:         []string{"tachycardia"},
		},
		Patient: &model.Patient{
			Base:      model.Base{ID: patientID},
			Name:      "Lucía Pérez",
			BirthDate: time.Date(2016, 5, 2, 0, 0, 0, 0, time.UTC),
			Pediatric: true,
			Guardian:  &guardian,
		},
		Clinician: &model.Clinician{Name: "Ana Torres", Specialty: "Pediatric Cardiology", Email: "ana@example.com"},
		Pediatric: &model.PediatricDetail{
			WeightKg: 25, HeightCm: 125, BodySurfaceArea: 0.93,
			WeightPercentile: clinical.P50, HeightPercentile: clinical.P50,
			AorticZ: 0.5, PulmonicZ: -0.25, MitralZ: 0.1, TricuspidZ: 0,
		},
		Prescriptions: []*model.Prescription{
			{Drug: "Ibuprofen", Dose: "10 mg/kg", Frequency: "every 8 hours", Duration: "3 days", Notes: "Take with food"},
		},
		ExamOrders: []*model.ExamOrder{
			{ExamType: "Chest X-Ray", Instructions: "PA and lateral"},
		},
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer("Heart Clinic")

	first, err := r.Render(testBundle())
	require.NoError(t, err)
	second, err := r.Render(testBundle())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(first, []byte("%PDF-")))
	assert.True(t, bytes.Equal(first, second))
}

func TestRenderProducesTwoPages(t *testing.T) {
	r := NewRenderer("Heart Clinic")

	pdf, err := r.build(testBundle())
	require.NoError(t, err)
	assert.Equal(t, 2, pdf.PageNo())

	b := testBundle()
	b.Prescriptions = nil
	b.ExamOrders = nil
	b.Pediatric = nil
	b.Adult = &model.AdultDetail{ScoreRisk: 4.5, FraminghamRisk: 5.4, RiskClass: clinical.RiskModerate}
	pdf, err = r.build(b)
	require.NoError(t, err)
	assert.Equal(t, 2, pdf.PageNo())
}

func TestRenderOverflowStaysDeterministic(t *testing.T) {
	r := NewRenderer("Heart Clinic")

	b := testBundle()
	b.Consultation.History = strings.Repeat("Intermittent palpitations on exertion since childhood. ", 200)
	for i := 0; i < 40; i++ {
		b.Prescriptions = append(b.Prescriptions, &model.Prescription{
			Drug: "Furosemide", Dose: "1 mg/kg", Frequency: "every 12 hours", Duration: "7 days",
		})
	}

	pdf, err := r.build(b)
	require.NoError(t, err)
	assert.Greater(t, pdf.PageNo(), 2)

	first, err := r.Render(b)
	require.NoError(t, err)
	second, err := r.Render(b)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
}

func TestRenderRejectsIncompleteBundle(t *testing.T) {
	b := testBundle()
	b.Clinician = nil
	_, err := NewRenderer("Heart Clinic").Render(b)
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	id := uuid.MustParse("3f2b9c1e-7a44-4f0e-9b1d-2c5e8a6f0d11")
	at := time.Date(2024, 3, 15, 10, 30, 5, 0, time.UTC)

	name := FileName("Lucía  Pérez", id, at)
	assert.Equal(t, "report_Lucía__Pérez_3f2b9c1e_20240315_103005.pdf", name)
	assert.True(t, reportName.MatchString(name))
	assert.Equal(t, "report_patient_3f2b9c1e_20240315_103005.pdf", FileName("../", id, at))
}

func TestFileArchive(t *testing.T) {
	archive, err := NewFileArchive(t.TempDir())
	require.NoError(t, err)

	id := uuid.MustParse("3f2b9c1e-7a44-4f0e-9b1d-2c5e8a6f0d11")
	other := uuid.MustParse("0000aaaa-7a44-4f0e-9b1d-2c5e8a6f0d11")
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	older := FileName("Ana Ruiz", id, base)
	newer := FileName("Ana Ruiz", id, base.Add(48*time.Hour))
	require.NoError(t, archive.Save(older, []byte("old")))
	require.NoError(t, archive.Save(newer, []byte("new")))
	require.NoError(t, archive.Save(FileName("Ana Ruiz", other, base), []byte("x")))

	names, err := archive.List(Prefix("Ana Ruiz", id))
	require.NoError(t, err)
	assert.Equal(t, []string{newer, older}, names)

	data, err := archive.Open(older)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data)

	_, err = archive.Open(FileName("Ana Ruiz", id, base.Add(time.Hour)))
	assert.ErrorIs(t, err, ErrReportNotFound)

	_, err = archive.Open("../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.ErrorIs(t, archive.Save("notes.txt", nil), ErrInvalidName)
}

func TestMailerSendReport(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "clinic@example.com"})

	var sent bytes.Buffer
	m.send = func(msg *gomail.Message) error {
		_, err := msg.WriteTo(&sent)
		return err
	}

	err := m.SendReport(context.Background(), "family@example.com", "Consultation report", "Attached.",
		Attachment{Name: "report_Ana_3f2b9c1e_20240315_100000.pdf", Data: []byte("%PDF-1.3")})
	require.NoError(t, err)

	out := sent.String()
	assert.Contains(t, out, "To: family@example.com")
	assert.Contains(t, out, "Subject: Consultation report")
	assert.Contains(t, out, `filename="report_Ana_3f2b9c1e_20240315_100000.pdf"`)
}

func TestNewMailerDialsConfiguredServer(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "clinic@example.com"})
	require.True(t, m.enabled)
	require.NotNil(t, m.send)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := m.SendReport(ctx, "a@example.com", "s", "b", Attachment{Name: "r.pdf", Data: []byte("%PDF-1.3")})
	assert.Error(t, err)
}

func TestMailerErrors(t *testing.T) {
	att := Attachment{Name: "r.pdf"}

	disabled := NewMailer(config.SMTPConfig{})
	assert.ErrorIs(t, disabled.SendReport(context.Background(), "a@example.com", "s", "b", att), ErrMailerDisabled)

	m := NewMailer(config.SMTPConfig{Host: "smtp.example.com", From: "clinic@example.com"})
	m.send = func(*gomail.Message) error { return errors.New("connection refused") }
	err := m.SendReport(context.Background(), "a@example.com", "s", "b", att)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "connection refused"))

	assert.Error(t, m.SendReport(context.Background(), " ", "s", "b", att))
}
