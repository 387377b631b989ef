package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateVitals(t *testing.T) {
	tests := []struct {
		name   string
		vitals Vitals
		want   []Alert
	}{
		{
			name:   "normal",
			vitals: Vitals{HeartRate: 72, Systolic: 120, Diastolic: 80, Saturation: 98},
			want:   []Alert{},
		},
		{
			name:   "heart rate bounds are inclusive",
			vitals: Vitals{HeartRate: 60, Systolic: 120, Diastolic: 80, Saturation: 95},
			want:   []Alert{},
		},
		{
			name:   "bradycardia",
			vitals: Vitals{HeartRate: 59, Systolic: 120, Diastolic: 80, Saturation: 98},
			want:   []Alert{AlertBradycardia},
		},
		{
			name:   "tachycardia",
			vitals: Vitals{HeartRate: 101, Systolic: 120, Diastolic: 80, Saturation: 98},
			want:   []Alert{AlertTachycardia},
		},
		{
			name:   "diastolic alone triggers hypertension",
			vitals: Vitals{HeartRate: 80, Systolic: 120, Diastolic: 90, Saturation: 98},
			want:   []Alert{AlertHypertension},
		},
		{
			name:   "hypertension wins over hypotension",
			vitals: Vitals{HeartRate: 80, Systolic: 150, Diastolic: 50, Saturation: 98},
			want:   []Alert{AlertHypertension},
		},
		{
			name:   "hypotension",
			vitals: Vitals{HeartRate: 80, Systolic: 89, Diastolic: 70, Saturation: 98},
			want:   []Alert{AlertHypotension},
		},
		{
			name:   "all three in order",
			vitals: Vitals{HeartRate: 120, Systolic: 85, Diastolic: 55, Saturation: 90.5},
			want:   []Alert{AlertTachycardia, AlertHypotension, AlertLowSaturation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateVitals(tt.vitals))
		})
	}
}

func TestAlertStrings(t *testing.T) {
	got := AlertStrings([]Alert{AlertBradycardia, AlertLowSaturation})
	assert.Equal(t, []string{"bradycardia", "low saturation"}, got)
}
