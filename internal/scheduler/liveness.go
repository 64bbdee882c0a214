package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/repository"
	"verdantia-data/internal/telemetry"
)

// LivenessSweeper periodically marks sectors offline when their snapshot
// has not moved within the timeout, and back online when it has.
type LivenessSweeper struct {
	sectors  repository.SectorsRepo
	store    *telemetry.Store
	timeout  time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewLivenessSweeper(
	sectors repository.SectorsRepo,
	store *telemetry.Store,
	timeout, interval time.Duration,
	logger *zap.Logger,
) *LivenessSweeper {
	return &LivenessSweeper{
		sectors:  sectors,
		store:    store,
		timeout:  timeout,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps on the configured interval until the context is canceled.
// Sweep errors are logged and the loop keeps going.
func (s *LivenessSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Liveness sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("timeout", s.timeout),
	)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Liveness sweeper stopped")
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("Liveness sweep finished with errors", zap.Error(err))
			}
		}
	}
}

// SweepOnce checks every sector once. A failing sector never blocks the
// rest; failures are collected and returned together. Status writes are
// delta-only so a steady fleet costs reads, not writes.
func (s *LivenessSweeper) SweepOnce(ctx context.Context) error {
	ids, err := s.sectors.ListSectorIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sectors: %w", err)
	}

	now := s.now().In(s.store.Location())
	var errs error
	for _, sectorID := range ids {
		if err := s.checkSector(ctx, sectorID, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sector %s: %w", sectorID, err))
		}
	}
	return errs
}

func (s *LivenessSweeper) checkSector(ctx context.Context, sectorID string, now time.Time) error {
	snap, err := s.store.Snapshot(ctx, sectorID)
	if err != nil {
		return err
	}
	// A sector that never reported has nothing to time out.
	if snap.LastUpdate == "" {
		return nil
	}

	last, err := time.ParseInLocation(telemetry.TimestampLayout, snap.LastUpdate, s.store.Location())
	if err != nil {
		return fmt.Errorf("bad last update %q: %w", snap.LastUpdate, err)
	}

	desired := domain.StatusOnline
	if now.Sub(last) > s.timeout {
		desired = domain.StatusOffline
	}
	if snap.Status == desired {
		return nil
	}

	if err := s.store.SetStatus(ctx, sectorID, desired); err != nil {
		return err
	}
	s.logger.Info("Sector status changed",
		zap.String("sector_id", sectorID),
		zap.String("status", desired),
	)
	return nil
}
