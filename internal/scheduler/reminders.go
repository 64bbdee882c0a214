package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"verdantia-data/internal/repository"
	"verdantia-data/internal/service"
)

// ReminderSweeper runs every user's daily notification checks on a fixed
// interval: important plant dates due today plus the daily reminder.
type ReminderSweeper struct {
	users     repository.UsersRepo
	messaging *service.MessagingService
	interval  time.Duration
	logger    *zap.Logger
}

func NewReminderSweeper(
	users repository.UsersRepo,
	messaging *service.MessagingService,
	interval time.Duration,
	logger *zap.Logger,
) *ReminderSweeper {
	return &ReminderSweeper{
		users:     users,
		messaging: messaging,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps on the configured interval until the context is canceled.
func (s *ReminderSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Reminder sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder sweeper stopped")
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("Reminder sweep finished with errors", zap.Error(err))
			}
		}
	}
}

// SweepOnce checks every user once, isolating per-user failures.
func (s *ReminderSweeper) SweepOnce(ctx context.Context) error {
	ids, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var errs error
	for _, userID := range ids {
		if err := s.messaging.CheckConditions(ctx, userID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("user %s: %w", userID, err))
		}
	}
	return errs
}
