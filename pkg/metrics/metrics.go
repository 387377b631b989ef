package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	ErrorTotal      *prometheus.CounterVec

	// Clinical workflow
	VitalAlerts        *prometheus.CounterVec
	ConsultationsSaved *prometheus.CounterVec
	PartialWrites      *prometheus.CounterVec
	ReportDuration     prometheus.Histogram

	// Scheduling
	AppointmentTransitions *prometheus.CounterVec
	SchedulingConflicts    prometheus.Counter

	// Auth
	LoginAttempts *prometheus.CounterVec
}

// New creates all application metrics and registers them with reg. A nil
// registerer leaves them unregistered, which keeps tests independent.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
		}, []string{"method", "path", "status"}),
		RequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		ErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of HTTP errors",
		}, []string{"method", "path", "type"}),

		VitalAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vital_alerts_total",
			Help:      "Vital-sign alerts raised, by kind",
		}, []string{"alert"}),
		ConsultationsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultations_saved_total",
			Help:      "Consultations persisted, by patient type",
		}, []string{"type"}),
		PartialWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultation_partial_writes_total",
			Help:      "Consultation workflows that failed after the first write, by failed step",
		}, []string{"step"}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_render_duration_seconds",
			Help:      "Time spent rendering PDF reports",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		}),

		AppointmentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_transitions_total",
			Help:      "Appointment status transitions, by target status and outcome",
		}, []string{"to", "outcome"}),
		SchedulingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_conflicts_total",
			Help:      "Scheduling attempts rejected because the slot was taken",
		}),

		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts, by outcome",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RequestDuration,
			m.RequestTotal,
			m.ErrorTotal,
			m.VitalAlerts,
			m.ConsultationsSaved,
			m.PartialWrites,
			m.ReportDuration,
			m.AppointmentTransitions,
			m.SchedulingConflicts,
			m.LoginAttempts,
		)
	}
	return m
}
