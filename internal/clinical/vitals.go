package clinical

// Alert is a flag raised for an out-of-range vital sign.
type Alert string

const (
	AlertBradycardia   Alert = "bradycardia"
	AlertTachycardia   Alert = "tachycardia"
	AlertHypertension  Alert = "hypertension"
	AlertHypotension   Alert = "hypotension"
	AlertLowSaturation Alert = "low saturation"
)

// Vitals are the raw measurements taken at triage or consultation.
type Vitals struct {
	HeartRate  int     `json:"heart_rate" db:"heart_rate" validate:"gte=0,lte=300"`
	Systolic   int     `json:"systolic" db:"systolic" validate:"gte=0,lte=300"`
	Diastolic  int     `json:"diastolic" db:"diastolic" validate:"gte=0,lte=200"`
	Saturation float64 `json:"spo2" db:"spo2" validate:"gte=0,lte=100"`
}

// ValidateVitals returns the alerts for v in a fixed order: heart rate,
// blood pressure, saturation. Hypertension takes precedence over hypotension.
func ValidateVitals(v Vitals) []Alert {
	alerts := make([]Alert, 0, 3)

	switch {
	case v.HeartRate < 60:
		alerts = append(alerts, AlertBradycardia)
	case v.HeartRate > 100:
		alerts = append(alerts, AlertTachycardia)
	}

	switch {
	case v.Systolic >= 140 || v.Diastolic >= 90:
		alerts = append(alerts, AlertHypertension)
	case v.Systolic < 90 || v.Diastolic < 60:
		alerts = append(alerts, AlertHypotension)
	}

	if v.Saturation < 95 {
		alerts = append(alerts, AlertLowSaturation)
	}

	return alerts
}

// AlertStrings converts alerts for storage.
func AlertStrings(alerts []Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = string(a)
	}
	return out
}
