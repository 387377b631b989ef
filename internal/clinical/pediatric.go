package clinical

import (
	"math"

	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
)

// Valve identifies a cardiac valve measured on echo.
type Valve string

const (
	ValveAortic    Valve = "aortic"
	ValvePulmonic  Valve = "pulmonic"
	ValveMitral    Valve = "mitral"
	ValveTricuspid Valve = "tricuspid"
)

type valveReference struct {
	mean float64
	sd   float64
}

// Simplified reference table; not a validated nomogram.
var valveReferences = map[Valve]valveReference{
	ValveAortic:    {mean: 15.0, sd: 2.0},
	ValvePulmonic:  {mean: 14.0, sd: 2.0},
	ValveMitral:    {mean: 18.0, sd: 2.5},
	ValveTricuspid: {mean: 20.0, sd: 3.0},
}

// Percentile is a coarse growth bucket.
type Percentile string

const (
	P10 Percentile = "P10"
	P25 Percentile = "P25"
	P50 Percentile = "P50"
	P75 Percentile = "P75"
	P90 Percentile = "P90"
)

// Measure selects which growth curve a percentile is read from.
type Measure string

const (
	MeasureWeight Measure = "weight"
	MeasureHeight Measure = "height"
)

// BodySurfaceArea uses the Haycock formula and rounds to 3 decimals.
func BodySurfaceArea(weightKg, heightCm float64) (float64, error) {
	if weightKg <= 0 {
		return 0, apperrors.Domain("weight_kg", weightKg, "weight must be greater than zero")
	}
	if heightCm <= 0 {
		return 0, apperrors.Domain("height_cm", heightCm, "height must be greater than zero")
	}
	bsa := 0.024265 * math.Pow(weightKg, 0.5378) * math.Pow(heightCm, 0.3964)
	return round(bsa, 3), nil
}

// ValveZScore standardises an observed valve diameter against the expected
// diameter for the given body surface area. Unknown valves use the aortic
// reference.
func ValveZScore(valve Valve, observedMm, bsa float64) (float64, error) {
	if bsa <= 0 {
		return 0, apperrors.Domain("body_surface_area", bsa, "body surface area must be greater than zero")
	}
	ref, ok := valveReferences[valve]
	if !ok {
		ref = valveReferences[ValveAortic]
	}
	expected := ref.mean * math.Sqrt(bsa/0.5)
	return round((observedMm-expected)/ref.sd, 2), nil
}

// GrowthPercentile buckets a weight (kg) or height (cm) value. ageMonths is
// accepted but does not affect the bucket.
func GrowthPercentile(measure Measure, value float64, ageMonths int) Percentile {
	_ = ageMonths

	var cuts [4]float64
	switch measure {
	case MeasureHeight:
		cuts = [4]float64{80, 95, 110, 125}
	default:
		cuts = [4]float64{10, 15, 20, 25}
	}

	switch {
	case value < cuts[0]:
		return P10
	case value < cuts[1]:
		return P25
	case value < cuts[2]:
		return P50
	case value < cuts[3]:
		return P75
	default:
		return P90
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
