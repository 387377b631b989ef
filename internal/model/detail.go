package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/cardio-api/internal/clinical"
)

type DuctusStatus string

const (
	DuctusClosed      DuctusStatus = "closed"
	DuctusOpen        DuctusStatus = "open"
	DuctusRestrictive DuctusStatus = "restrictive"
)

// DetailInput is either PediatricInput or AdultInput.
type DetailInput interface {
	detailInput()
}

type PediatricInput struct {
	WeightKg     float64      `json:"weight_kg"`
	HeightCm     float64      `json:"height_cm"`
	AorticMm     float64      `json:"aortic_mm" validate:"gte=0"`
	PulmonicMm   float64      `json:"pulmonic_mm" validate:"gte=0"`
	MitralMm     float64      `json:"mitral_mm" validate:"gte=0"`
	TricuspidMm  float64      `json:"tricuspid_mm" validate:"gte=0"`
	DuctusStatus DuctusStatus `json:"ductus_status" validate:"omitempty,oneof=closed open restrictive"`
	DuctusSizeMm *float64     `json:"ductus_size_mm" validate:"omitempty,gte=0"`
}

type AdultInput struct {
	Sex              clinical.Sex           `json:"sex" validate:"omitempty,oneof=M F"`
	Hypertension     bool                   `json:"hypertension"`
	Diabetes         bool                   `json:"diabetes"`
	Smoking          clinical.SmokingStatus `json:"smoking" validate:"omitempty,oneof=never active former"`
	TotalCholesterol float64                `json:"total_cholesterol" validate:"gte=0"`
	HDL              float64                `json:"hdl" validate:"gte=0"`
}

func (PediatricInput) detailInput() {}
func (AdultInput) detailInput()     {}

type PediatricDetail struct {
	ID               uuid.UUID           `json:"id" db:"id"`
	ConsultationID   uuid.UUID           `json:"consultation_id" db:"consultation_id"`
	WeightKg         float64             `json:"weight_kg" db:"weight_kg"`
	HeightCm         float64             `json:"height_cm" db:"height_cm"`
	BodySurfaceArea  float64             `json:"body_surface_area" db:"body_surface_area"`
	WeightPercentile clinical.Percentile `json:"weight_percentile" db:"weight_percentile"`
	HeightPercentile clinical.Percentile `json:"height_percentile" db:"height_percentile"`
	AorticMm         float64             `json:"aortic_mm" db:"aortic_mm"`
	PulmonicMm       float64             `json:"pulmonic_mm" db:"pulmonic_mm"`
	MitralMm         float64             `json:"mitral_mm" db:"mitral_mm"`
	TricuspidMm      float64             `json:"tricuspid_mm" db:"tricuspid_mm"`
	AorticZ          float64             `json:"aortic_z" db:"aortic_z"`
	PulmonicZ        float64             `json:"pulmonic_z" db:"pulmonic_z"`
	MitralZ          float64             `json:"mitral_z" db:"mitral_z"`
	TricuspidZ       float64             `json:"tricuspid_z" db:"tricuspid_z"`
	DuctusStatus     DuctusStatus        `json:"ductus_status" db:"ductus_status"`
	DuctusSizeMm     *float64            `json:"ductus_size_mm,omitempty" db:"ductus_size_mm"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
}

type AdultDetail struct {
	ID               uuid.UUID              `json:"id" db:"id"`
	ConsultationID   uuid.UUID              `json:"consultation_id" db:"consultation_id"`
	Hypertension     bool                   `json:"hypertension" db:"hypertension"`
	Diabetes         bool                   `json:"diabetes" db:"diabetes"`
	Smoking          clinical.SmokingStatus `json:"smoking" db:"smoking"`
	TotalCholesterol float64                `json:"total_cholesterol" db:"total_cholesterol"`
	HDL              float64                `json:"hdl" db:"hdl"`
	ScoreRisk        float64                `json:"score_risk" db:"score_risk"`
	FraminghamRisk   float64                `json:"framingham_risk" db:"framingham_risk"`
	RiskClass        clinical.RiskClass     `json:"risk_class" db:"risk_class"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
}
