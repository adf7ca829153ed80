/**
 * @description
 * Cron scheduler setup for the roster sweeps.
 */

package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/berkmanco/pickleballers-sub001/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.CompleteSweepSchedule, s.jobs.CompleteElapsedSessions); err != nil {
		s.logger.Error("failed to schedule session completion sweep", "error", err)
	} else {
		s.logger.Info("scheduled session completion sweep", "schedule", s.config.CompleteSweepSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.CancelSweepSchedule, s.jobs.CancelBelowMinimumSessions); err != nil {
		s.logger.Error("failed to schedule deadline cancellation sweep", "error", err)
	} else {
		s.logger.Info("scheduled deadline cancellation sweep", "schedule", s.config.CancelSweepSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.ReminderSweepSchedule, s.jobs.SendPaymentReminders); err != nil {
		s.logger.Error("failed to schedule payment reminder sweep", "error", err)
	} else {
		s.logger.Info("scheduled payment reminder sweep", "schedule", s.config.ReminderSweepSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
