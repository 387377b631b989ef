package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/cardio-api/internal/repository"
)

// AuditRetentionWorker periodically deletes audit entries older than the
// retention window.
type AuditRetentionWorker struct {
	repo          repository.AuditRepository
	retentionDays int
	interval      time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

func NewAuditRetentionWorker(repo repository.AuditRepository, retentionDays int, interval time.Duration, logger zerolog.Logger) *AuditRetentionWorker {
	return &AuditRetentionWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger.With().Str("worker", "audit_retention").Logger(),
		now:           time.Now,
	}
}

// Start runs a cleanup immediately and then every interval until ctx is done.
func (w *AuditRetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.logger.Error().Err(err).Msg("audit retention run failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *AuditRetentionWorker) RunOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().AddDate(0, 0, -w.retentionDays)

	n, err := w.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up audit logs: %w", err)
	}

	if n > 0 {
		w.logger.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("audit logs cleaned up")
	}
	return n, nil
}
