package main

import (
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/cardio-api/internal/app"
	"github.com/jwalitptl/cardio-api/internal/config"
	"github.com/jwalitptl/cardio-api/internal/repository/memory"
	"github.com/jwalitptl/cardio-api/internal/repository/postgres"
	"github.com/jwalitptl/cardio-api/pkg/logger"
)

func loadConfig() (*config.Config, error) {
	var paths []string
	if cfgDir != "" {
		paths = append(paths, cfgDir)
	}
	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (zerolog.Logger, io.Closer) {
	return logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
}

func postgresRepositories(db *sqlx.DB) app.Repositories {
	return app.Repositories{
		Users:         postgres.NewUserRepository(db),
		Clinicians:    postgres.NewClinicianRepository(db),
		Patients:      postgres.NewPatientRepository(db),
		Appointments:  postgres.NewAppointmentRepository(db),
		Consultations: postgres.NewConsultationRepository(db),
		Audit:         postgres.NewAuditRepository(db),
		Health:        db,
	}
}

func memoryRepositories() app.Repositories {
	store := memory.NewStore()
	return app.Repositories{
		Users:         store.Users(),
		Clinicians:    store.Clinicians(),
		Patients:      store.Patients(),
		Appointments:  store.Appointments(),
		Consultations: store.Consultations(),
		Audit:         store.Audit(),
		Health:        store,
	}
}
