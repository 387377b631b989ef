package clinical

import "time"

type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

type SmokingStatus string

const (
	SmokingNever  SmokingStatus = "never"
	SmokingActive SmokingStatus = "active"
	SmokingFormer SmokingStatus = "former"
)

type RiskClass string

const (
	RiskLow      RiskClass = "Low"
	RiskModerate RiskClass = "Moderate"
	RiskHigh     RiskClass = "High"
	RiskVeryHigh RiskClass = "Very High"
)

// RiskFactors are the inputs to the surrogate cardiovascular scores.
// These are simplified point scores, not the published equations.
type RiskFactors struct {
	Age              int
	Sex              Sex
	TotalCholesterol float64
	HDL              float64
	Systolic         int
	Smoking          SmokingStatus
	Diabetic         bool
}

// ScoreRisk returns the SCORE-style point total rounded to 2 decimals.
func ScoreRisk(f RiskFactors) float64 {
	var score float64

	switch {
	case f.Age >= 65:
		score += 5.0
	case f.Age >= 55:
		score += 3.0
	case f.Age >= 45:
		score += 1.5
	}

	if f.Sex == SexMale {
		score += 1.0
	}

	switch {
	case f.TotalCholesterol > 240:
		score += 2.0
	case f.TotalCholesterol > 200:
		score += 1.0
	}

	if f.HDL < 40 {
		score += 1.5
	}

	switch {
	case f.Systolic >= 160:
		score += 2.0
	case f.Systolic >= 140:
		score += 1.0
	}

	if f.Smoking == SmokingActive {
		score += 2.0
	}

	return round(score, 2)
}

// FraminghamRisk adds the diabetes term to the SCORE-style total.
func FraminghamRisk(f RiskFactors) float64 {
	score := ScoreRisk(f)
	if f.Diabetic {
		score += 2.5
	}
	return round(score, 2)
}

func ClassifyRisk(score float64) RiskClass {
	switch {
	case score < 5:
		return RiskLow
	case score < 10:
		return RiskModerate
	case score < 20:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// AgeInYears returns completed years between birth and at.
func AgeInYears(birth, at time.Time) int {
	years := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// AgeInMonths returns completed months between birth and at.
func AgeInMonths(birth, at time.Time) int {
	months := (at.Year()-birth.Year())*12 + int(at.Month()-birth.Month())
	if at.Day() < birth.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
