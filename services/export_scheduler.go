package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// ExportScheduler периодически выгружает сетку в хранилище.
type ExportScheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// StartExportScheduler registers a job that runs ExportBracket every interval.
// Runs never overlap; a slow export pushes the next run back.
func StartExportScheduler(ctx context.Context, export ExportService, interval time.Duration, logger *slog.Logger) (*ExportScheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("export interval must be positive, got %v", interval)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create export scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			runCtx, cancel := context.WithTimeout(ctx, interval)
			defer cancel()
			runScheduledExport(runCtx, export, logger)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to register export job: %w", err)
	}

	sched.Start()
	logger.Info("Bracket export scheduler started", slog.Duration("interval", interval))
	return &ExportScheduler{scheduler: sched, logger: logger}, nil
}

func runScheduledExport(ctx context.Context, export ExportService, logger *slog.Logger) {
	res, err := export.ExportBracket(ctx)
	switch {
	case errors.Is(err, ErrExportDisabled):
		logger.Debug("Scheduled export skipped: storage not configured")
	case err != nil:
		logger.Error("Scheduled bracket export failed", slog.Any("error", err))
	default:
		logger.Debug("Scheduled bracket export done", slog.String("key", res.Key))
	}
}

// Stop waits for a running export to finish.
func (s *ExportScheduler) Stop() {
	if s == nil {
		return
	}
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error("Failed to stop export scheduler", slog.Any("error", err))
	}
}
