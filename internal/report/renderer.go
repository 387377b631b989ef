package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jwalitptl/cardio-api/internal/model"
)

const (
	margin     = 50.0
	lineHeight = 14.0
	dateLayout = "02/01/2006"
)

// Renderer lays out the two-page consultation report: clinical summary on
// page one, prescriptions and external orders on page two. Output depends
// only on the bundle, so rendering the same consultation twice yields
// identical bytes.
type Renderer struct {
	clinicName string
	loc        *time.Location
}

// NewRenderer prints dates in the process's local time zone.
func NewRenderer(clinicName string) *Renderer {
	return &Renderer{clinicName: clinicName, loc: time.Local}
}

func (r *Renderer) Render(b *model.ConsultationBundle) ([]byte, error) {
	pdf, err := r.build(b)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return buf.Bytes(), nil
}

type page struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (r *Renderer) build(b *model.ConsultationBundle) (*fpdf.Fpdf, error) {
	if b == nil || b.Consultation == nil || b.Patient == nil || b.Clinician == nil {
		return nil, fmt.Errorf("incomplete consultation bundle")
	}
	at := b.Consultation.ConsultedAt.In(r.loc)

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(at)
	pdf.SetModificationDate(at)
	pdf.SetTitle("Cardiology report", true)
	pdf.SetAuthor("Dr. "+b.Clinician.Name, true)
	pdf.SetCreator(r.clinicName, true)

	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.AddPage()
	r.header(p, b, "Cardiology Medical Report")
	r.clinicalSummary(p, b)
	r.signature(p, b.Clinician)

	pdf.AddPage()
	r.header(p, b, "Prescription and Treatment Instructions")
	r.prescriptions(p, b)
	r.signature(p, b.Clinician)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return pdf, nil
}

func (r *Renderer) header(p *page, b *model.ConsultationBundle, title string) {
	pdf := p.pdf
	at := b.Consultation.ConsultedAt.In(r.loc)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 22, p.tr(strings.ToUpper(r.clinicName)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, lineHeight, p.tr(fmt.Sprintf("Dr. %s | %s", b.Clinician.Name, b.Clinician.Specialty)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, p.tr("Email: "+b.Clinician.Email), "", 1, "L", false, 0, "")
	pdf.Ln(6)
	y := pdf.GetY()
	w, _ := pdf.GetPageSize()
	pdf.Line(margin, y, w-margin, y)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 139)
	pdf.CellFormat(0, 18, p.tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(300, 16, p.tr("Patient: "+b.Patient.Name), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 16, "Date: "+at.Format(dateLayout), "", 1, "L", false, 0, "")
	pdf.CellFormat(300, 16, "Patient ID: "+b.Patient.ID.String(), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 16, fmt.Sprintf("Age: %d years", b.Patient.AgeAt(at)), "", 1, "L", false, 0, "")
	pdf.Ln(12)
}

func (r *Renderer) clinicalSummary(p *page, b *model.ConsultationBundle) {
	pdf := p.pdf
	c := b.Consultation

	p.subtitle("Initial Assessment (Triage)")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	for _, h := range []string{"HR", "Systolic BP", "Diastolic BP", "SpO2"} {
		pdf.CellFormat(100, 18, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, v := range []string{
		fmt.Sprintf("%d bpm", c.HeartRate),
		fmt.Sprintf("%d mmHg", c.Systolic),
		fmt.Sprintf("%d mmHg", c.Diastolic),
		fmt.Sprintf("%.1f%%", c.Saturation),
	} {
		pdf.CellFormat(100, 18, v, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	if len(c.Alerts) > 0 {
		pdf.Ln(4)
		p.field("Alerts", strings.Join(c.Alerts, ", "))
	}
	pdf.Ln(10)

	p.subtitle("Clinical Summary and Course")
	p.field("Chief complaint", c.ChiefComplaint)
	p.field("History/Course", orDefault(c.History, "N/A"))
	pdf.Ln(6)

	p.subtitle("Physical Examination")
	p.field("General appearance", orDefault(c.PhysicalExam.General, "N/A"))
	p.field("Cardiovascular", orDefault(c.PhysicalExam.Cardiovascular, "N/A"))
	p.field("Respiratory", orDefault(c.PhysicalExam.Respiratory, "N/A"))
	p.field("Other", orDefault(c.PhysicalExam.Other, "N/A"))
	pdf.Ln(6)

	p.subtitle("In-Office Studies")
	p.field("ECG findings", orDefault(c.Studies.ECG, "Not performed"))
	p.field("Echocardiogram findings", orDefault(c.Studies.Echo, "Not performed"))
	switch {
	case b.Pediatric != nil:
		d := b.Pediatric
		pdf.Ln(4)
		p.field("Pediatric Z-scores", fmt.Sprintf("Ao: %.2f, Pul: %.2f, Mit: %.2f, Tri: %.2f", d.AorticZ, d.PulmonicZ, d.MitralZ, d.TricuspidZ))
		p.field("Anthropometry", fmt.Sprintf("%.1f kg (%s), %.1f cm (%s), BSA %.3f m2",
			d.WeightKg, d.WeightPercentile, d.HeightCm, d.HeightPercentile, d.BodySurfaceArea))
	case b.Adult != nil:
		d := b.Adult
		pdf.Ln(4)
		p.field("Cardiovascular risk", fmt.Sprintf("SCORE %.2f, Framingham %.2f (%s)", d.ScoreRisk, d.FraminghamRisk, d.RiskClass))
	}
	pdf.Ln(10)

	p.subtitle("Clinical Diagnosis")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, lineHeight, p.tr(orDefault(c.Diagnosis, "Not specified")), "", "L", false)
	pdf.Ln(6)
}

func (r *Renderer) prescriptions(p *page, b *model.ConsultationBundle) {
	pdf := p.pdf

	if len(b.Prescriptions) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, lineHeight, "No medications were prescribed at this visit.", "", 1, "L", false, 0, "")
	} else {
		p.subtitle("PRESCRIPTION (PHARMACY USE)")
		pdf.Ln(4)
		for _, rx := range b.Prescriptions {
			p.bullet(rx.Drug, " - "+rx.Dose)
		}
		pdf.Ln(18)

		p.subtitle("TREATMENT INSTRUCTIONS")
		pdf.Ln(4)
		for _, rx := range b.Prescriptions {
			p.bullet(rx.Drug, fmt.Sprintf(": %s for %s", rx.Frequency, rx.Duration))
			if rx.Notes != "" {
				pdf.SetFont("Helvetica", "I", 10)
				pdf.SetX(margin + 14)
				pdf.MultiCell(0, lineHeight, p.tr("Note: "+rx.Notes), "", "L", false)
			}
			pdf.Ln(6)
		}
	}

	if len(b.ExamOrders) > 0 {
		pdf.Ln(18)
		p.subtitle("Orders for External Studies")
		for _, o := range b.ExamOrders {
			p.bullet(o.ExamType, ": "+o.Instructions)
			pdf.Ln(6)
		}
	}
}

func (r *Renderer) signature(p *page, c *model.Clinician) {
	pdf := p.pdf
	pdf.Ln(40)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, lineHeight, strings.Repeat("_", 40), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, lineHeight, p.tr("Dr. "+c.Name), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, lineHeight, p.tr("Cardiology - "+c.Specialty), "", 1, "C", false, 0, "")
}

func (p *page) subtitle(text string) {
	p.pdf.SetFont("Helvetica", "B", 12)
	p.pdf.SetTextColor(0, 0, 139)
	p.pdf.CellFormat(0, 18, p.tr(text), "", 1, "L", false, 0, "")
	p.pdf.SetTextColor(0, 0, 0)
}

// field writes "label: value" with a bold label, wrapping at the margin.
func (p *page) field(label, value string) {
	p.pdf.SetFont("Helvetica", "B", 10)
	p.pdf.Write(lineHeight, p.tr(label+": "))
	p.pdf.SetFont("Helvetica", "", 10)
	p.pdf.Write(lineHeight, p.tr(value))
	p.pdf.Ln(lineHeight + 2)
}

func (p *page) bullet(bold, rest string) {
	p.pdf.SetFont("Helvetica", "", 10)
	p.pdf.Write(lineHeight, p.tr("• "))
	p.pdf.SetFont("Helvetica", "B", 10)
	p.pdf.Write(lineHeight, p.tr(bold))
	p.pdf.SetFont("Helvetica", "", 10)
	p.pdf.Write(lineHeight, p.tr(rest))
	p.pdf.Ln(lineHeight + 2)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
