// Package app assembles services, handlers and the router from a
// configuration and a set of repositories.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/cardio-api/internal/config"
	appointmentHandler "github.com/jwalitptl/cardio-api/internal/handler/appointment"
	auditHandler "github.com/jwalitptl/cardio-api/internal/handler/audit"
	authHandler "github.com/jwalitptl/cardio-api/internal/handler/auth"
	clinicianHandler "github.com/jwalitptl/cardio-api/internal/handler/clinician"
	consultationHandler "github.com/jwalitptl/cardio-api/internal/handler/consultation"
	"github.com/jwalitptl/cardio-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/cardio-api/internal/handler/patient"
	"github.com/jwalitptl/cardio-api/internal/middleware"
	"github.com/jwalitptl/cardio-api/internal/report"
	"github.com/jwalitptl/cardio-api/internal/repository"
	"github.com/jwalitptl/cardio-api/internal/router"
	appointmentService "github.com/jwalitptl/cardio-api/internal/service/appointment"
	auditService "github.com/jwalitptl/cardio-api/internal/service/audit"
	authService "github.com/jwalitptl/cardio-api/internal/service/auth"
	clinicianService "github.com/jwalitptl/cardio-api/internal/service/clinician"
	consultationService "github.com/jwalitptl/cardio-api/internal/service/consultation"
	patientService "github.com/jwalitptl/cardio-api/internal/service/patient"
	"github.com/jwalitptl/cardio-api/pkg/auth"
	"github.com/jwalitptl/cardio-api/pkg/metrics"
	"github.com/jwalitptl/cardio-api/pkg/security"
)

// Repositories is the storage the application runs on.
type Repositories struct {
	Users         repository.UserRepository
	Clinicians    repository.ClinicianRepository
	Patients      repository.PatientRepository
	Appointments  repository.AppointmentRepository
	Consultations repository.ConsultationRepository
	Audit         repository.AuditRepository
	Health        health.Pinger
}

type Options struct {
	Sessions authService.SessionStore
	// Registry receives the application metrics and backs /metrics. Nil
	// disables both.
	Registry   *prometheus.Registry
	BcryptCost int
	Mailer     consultationService.Mailer
}

type App struct {
	Router  *router.Router
	Auth    *authService.Service
	Metrics *metrics.Metrics
}

func New(cfg *config.Config, repos Repositories, opts Options, logger zerolog.Logger) (*App, error) {
	var reg prometheus.Registerer
	var gatherer prometheus.Gatherer
	if opts.Registry != nil {
		reg, gatherer = opts.Registry, opts.Registry
	}
	m := metrics.New(cfg.Monitoring.MetricsPrefix, reg)

	archive, err := report.NewFileArchive(cfg.Report.ArchiveDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open report archive: %w", err)
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = report.NewMailer(cfg.SMTP)
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = authService.NewMemoryStore()
	}

	hasher := security.NewBcryptHasher(opts.BcryptCost)
	auditor := auditService.NewService(repos.Audit, logger)

	authSvc := authService.NewService(
		repos.Users,
		hasher,
		auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer),
		sessions,
		cfg.JWT.Expiry(),
		m,
		auditor,
		logger,
	)
	clinicianSvc := clinicianService.NewService(repos.Clinicians, hasher, auditor, logger)
	patientSvc := patientService.NewService(repos.Patients, cfg.Phone.DefaultRegion, auditor, logger)
	appointmentSvc := appointmentService.NewService(repos.Appointments, repos.Patients, repos.Clinicians, m, auditor, logger)
	consultationSvc := consultationService.NewService(consultationService.Deps{
		Consultations: repos.Consultations,
		Patients:      repos.Patients,
		Clinicians:    repos.Clinicians,
		Appointments:  repos.Appointments,
		Renderer:      report.NewRenderer(cfg.Report.ClinicName),
		Archive:       archive,
		Mailer:        mailer,
		Metrics:       m,
		Auditor:       auditor,
		Logger:        logger,
	})

	r := router.NewRouter(
		middleware.NewAuthMiddleware(authSvc),
		router.Handlers{
			Auth:         authHandler.NewHandler(authSvc),
			Health:       health.NewHandler(repos.Health),
			Clinician:    clinicianHandler.NewHandler(clinicianSvc),
			Patient:      patientHandler.NewHandler(patientSvc),
			Appointment:  appointmentHandler.NewHandler(appointmentSvc),
			Consultation: consultationHandler.NewHandler(consultationSvc),
			Audit:        auditHandler.NewHandler(auditor),
		},
		m,
		logger,
		router.RouterConfig{
			LoginPerMinute: cfg.RateLimit.LoginPerMinute,
			LoginBurst:     cfg.RateLimit.LoginBurst,
			Gatherer:       gatherer,
		},
	)
	r.Setup()

	return &App{Router: r, Auth: authSvc, Metrics: m}, nil
}
