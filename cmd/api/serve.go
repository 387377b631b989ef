package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/cardio-api/internal/app"
	"github.com/jwalitptl/cardio-api/internal/config"
	"github.com/jwalitptl/cardio-api/internal/model"
	"github.com/jwalitptl/cardio-api/internal/repository/postgres"
	"github.com/jwalitptl/cardio-api/internal/worker"
	authService "github.com/jwalitptl/cardio-api/internal/service/auth"
	apperrors "github.com/jwalitptl/cardio-api/pkg/errors"
)

type serveOptions struct {
	inMemory      bool
	migrate       bool
	adminUser     string
	adminPassword string
}

func newServeCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, closer := newLogger(cfg)
			defer closer.Close()

			return serve(cmd.Context(), cfg, opts, logger)
		},
	}

	cmd.Flags().BoolVar(&opts.inMemory, "in-memory", false, "keep all data in memory instead of PostgreSQL")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply pending migrations before serving")
	cmd.Flags().StringVar(&opts.adminUser, "admin-user", "admin", "administrator created at startup when --admin-password is set")
	cmd.Flags().StringVar(&opts.adminPassword, "admin-password", "", "password for the startup administrator")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, opts serveOptions, logger zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var repos app.Repositories
	if opts.inMemory {
		logger.Warn().Msg("using in-memory storage, data is lost on exit")
		repos = memoryRepositories()
	} else {
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if opts.migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
		}
		repos = postgresRepositories(db)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	appOpts := app.Options{Registry: registry}
	if cfg.Session.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		appOpts.Sessions = authService.NewRedisStore(client)
	}

	a, err := app.New(cfg, repos, appOpts, logger)
	if err != nil {
		return err
	}

	if opts.adminPassword != "" {
		if err := ensureAdmin(ctx, a.Auth, opts.adminUser, opts.adminPassword); err != nil {
			return err
		}
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	if cfg.Audit.RetentionDays > 0 {
		retention := worker.NewAuditRetentionWorker(repos.Audit, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval(), logger)
		go retention.Start(workerCtx)
	}

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           a.Router.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Str("environment", cfg.Server.Environment).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}
	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server exited properly")
	return nil
}

// ensureAdmin creates the administrator login unless the username is taken.
func ensureAdmin(ctx context.Context, auth *authService.Service, username, password string) error {
	_, err := auth.CreateUser(ctx, &model.CreateUserRequest{
		Username: username,
		Password: password,
		Role:     model.RoleAdmin,
	})
	if err != nil && !apperrors.IsConflict(err) {
		return fmt.Errorf("failed to create administrator: %w", err)
	}
	return nil
}
