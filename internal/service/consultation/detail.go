package consultation

import (
	"time"

	"github.com/jwalitptl/cardio-api/internal/clinical"
	"github.com/jwalitptl/cardio-api/internal/model"
	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
)

func buildPediatric(in model.PediatricInput, patient *model.Patient, at time.Time) (*model.PediatricDetail, error) {
	bsa, err := clinical.BodySurfaceArea(in.WeightKg, in.HeightCm)
	if err != nil {
		return nil, err
	}
	months := clinical.AgeInMonths(patient.BirthDate, at)

	d := &model.PediatricDetail{
		WeightKg:         in.WeightKg,
		HeightCm:         in.HeightCm,
		BodySurfaceArea:  bsa,
		WeightPercentile: clinical.GrowthPercentile(clinical.MeasureWeight, in.WeightKg, months),
		HeightPercentile: clinical.GrowthPercentile(clinical.MeasureHeight, in.HeightCm, months),
		AorticMm:         in.AorticMm,
		PulmonicMm:       in.PulmonicMm,
		MitralMm:         in.MitralMm,
		TricuspidMm:      in.TricuspidMm,
		DuctusStatus:     in.DuctusStatus,
	}

	valves := []struct {
		valve clinical.Valve
		mm    float64
		z     *float64
	}{
		{clinical.ValveAortic, in.AorticMm, &d.AorticZ},
		{clinical.ValvePulmonic, in.PulmonicMm, &d.PulmonicZ},
		{clinical.ValveMitral, in.MitralMm, &d.MitralZ},
		{clinical.ValveTricuspid, in.TricuspidMm, &d.TricuspidZ},
	}
	for _, v := range valves {
		z, err := clinical.ValveZScore(v.valve, v.mm, bsa)
		if err != nil {
			return nil, err
		}
		*v.z = z
	}

	if d.DuctusStatus == "" {
		d.DuctusStatus = model.DuctusClosed
	}
	if d.DuctusStatus != model.DuctusClosed {
		d.DuctusSizeMm = in.DuctusSizeMm
	}
	return d, nil
}

// buildAdult scores cardiovascular risk from the adult inputs and the
// systolic pressure measured at this visit. The patient's age is taken in
// completed years at the consultation date.
func buildAdult(in model.AdultInput, patient *model.Patient, vitals clinical.Vitals, at time.Time) (*model.AdultDetail, error) {
	sex := in.Sex
	if sex == "" && patient.Sex != nil {
		sex = *patient.Sex
	}
	if sex == "" {
		return nil, apperrors.Validation("adult.sex", "sex is required for risk scoring")
	}

	smoking := in.Smoking
	if smoking == "" {
		smoking = clinical.SmokingNever
	}

	factors := clinical.RiskFactors{
		Age:              clinical.AgeInYears(patient.BirthDate, at),
		Sex:              sex,
		TotalCholesterol: in.TotalCholesterol,
		HDL:              in.HDL,
		Systolic:         vitals.Systolic,
		Smoking:          smoking,
		Diabetic:         in.Diabetes,
	}
	score := clinical.ScoreRisk(factors)

	return &model.AdultDetail{
		Hypertension:     in.Hypertension,
		Diabetes:         in.Diabetes,
		Smoking:          smoking,
		TotalCholesterol: in.TotalCholesterol,
		HDL:              in.HDL,
		ScoreRisk:        score,
		FraminghamRisk:   clinical.FraminghamRisk(factors),
		RiskClass:        clinical.ClassifyRisk(score),
	}, nil
}
