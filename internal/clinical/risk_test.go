package clinical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func baseline() RiskFactors {
	return RiskFactors{
		Age:              40,
		Sex:              SexFemale,
		TotalCholesterol: 180,
		HDL:              55,
		Systolic:         120,
		Smoking:          SmokingNever,
	}
}

func TestScoreRisk(t *testing.T) {
	assert.Equal(t, 0.0, ScoreRisk(baseline()))

	worst := RiskFactors{
		Age:              70,
		Sex:              SexMale,
		TotalCholesterol: 260,
		HDL:              35,
		Systolic:         170,
		Smoking:          SmokingActive,
	}
	assert.Equal(t, 13.5, ScoreRisk(worst))

	mid := RiskFactors{
		Age:              50,
		Sex:              SexMale,
		TotalCholesterol: 220,
		HDL:              45,
		Systolic:         145,
		Smoking:          SmokingFormer,
	}
	assert.Equal(t, 4.5, ScoreRisk(mid))
}

func TestFraminghamRisk(t *testing.T) {
	f := baseline()
	f.Age = 60
	assert.Equal(t, 3.0, FraminghamRisk(f))

	f.Diabetic = true
	assert.Equal(t, 5.5, FraminghamRisk(f))
	assert.Equal(t, 3.0, ScoreRisk(f), "diabetes does not affect the SCORE-style total")
}

func TestRiskMonotonicPerFactor(t *testing.T) {
	worsen := []func(*RiskFactors){
		func(f *RiskFactors) { f.Age = 45 },
		func(f *RiskFactors) { f.Age = 55 },
		func(f *RiskFactors) { f.Age = 65 },
		func(f *RiskFactors) { f.TotalCholesterol = 201 },
		func(f *RiskFactors) { f.TotalCholesterol = 241 },
		func(f *RiskFactors) { f.HDL = 39 },
		func(f *RiskFactors) { f.Systolic = 140 },
		func(f *RiskFactors) { f.Systolic = 160 },
		func(f *RiskFactors) { f.Smoking = SmokingActive },
		func(f *RiskFactors) { f.Diabetic = true },
		func(f *RiskFactors) { f.Sex = SexMale },
	}

	f := baseline()
	prevScore, prevFram := ScoreRisk(f), FraminghamRisk(f)
	for i, step := range worsen {
		step(&f)
		score, fram := ScoreRisk(f), FraminghamRisk(f)
		assert.GreaterOrEqual(t, score, prevScore, "step %d", i)
		assert.GreaterOrEqual(t, fram, prevFram, "step %d", i)
		prevScore, prevFram = score, fram
	}
}

func TestFormerSmokerScoresLikeNonSmoker(t *testing.T) {
	never := baseline()
	former := baseline()
	former.Smoking = SmokingFormer
	assert.Equal(t, ScoreRisk(never), ScoreRisk(former))
}

func TestClassifyRiskBoundaries(t *testing.T) {
	tests := map[float64]RiskClass{
		0:     RiskLow,
		4.99:  RiskLow,
		5.0:   RiskModerate,
		9.99:  RiskModerate,
		10.0:  RiskHigh,
		19.99: RiskHigh,
		20.0:  RiskVeryHigh,
		35:    RiskVeryHigh,
	}
	for score, want := range tests {
		assert.Equal(t, want, ClassifyRisk(score), "score %.2f", score)
	}
}

func TestAgeInYears(t *testing.T) {
	birth := time.Date(1960, time.March, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 64, AgeInYears(birth, time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 65, AgeInYears(birth, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, AgeInYears(birth, time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAgeInMonths(t *testing.T) {
	birth := time.Date(2022, time.June, 20, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 23, AgeInMonths(birth, time.Date(2024, time.June, 19, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, AgeInMonths(birth, time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC)))
}
