package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/repository"
	"verdantia-data/internal/telemetry"
)

// SectorService owns the sector lifecycle: creation with device binding
// and the cascaded teardown.
type SectorService struct {
	sectors   repository.SectorsRepo
	farms     repository.FarmsRepo
	devices   repository.DevicesRepo
	plants    repository.PlantsRepo
	anomalies repository.AnomaliesRepo
	telemetry *telemetry.Store
	logger    *zap.Logger
	now       func() time.Time
}

func NewSectorService(
	sectors repository.SectorsRepo,
	farms repository.FarmsRepo,
	devices repository.DevicesRepo,
	plants repository.PlantsRepo,
	anomalies repository.AnomaliesRepo,
	store *telemetry.Store,
	logger *zap.Logger,
) *SectorService {
	return &SectorService{
		sectors:   sectors,
		farms:     farms,
		devices:   devices,
		plants:    plants,
		anomalies: anomalies,
		telemetry: store,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateSector binds the device first so a device already serving another
// sector rejects the whole creation, then persists the sector with default
// settings and registers it on the farm.
func (s *SectorService) CreateSector(ctx context.Context, farmID, deviceID, userID string) (*domain.Sector, error) {
	sector := &domain.Sector{
		SectorID:          uuid.New().String(),
		FarmID:            farmID,
		DeviceID:          deviceID,
		CreatedAt:         s.now(),
		ParameterSettings: domain.DefaultParameterSettings(),
		TriggerSettings:   domain.DefaultTriggerSettings(),
	}

	if err := s.devices.LinkDevice(ctx, deviceID, sector.SectorID, userID); err != nil {
		return nil, err
	}

	if err := s.sectors.CreateSector(ctx, sector); err != nil {
		if unlinkErr := s.devices.UnlinkDevice(ctx, deviceID); unlinkErr != nil {
			s.logger.Error("Device left linked after failed sector creation",
				zap.String("device_id", deviceID), zap.Error(unlinkErr))
		}
		return nil, err
	}
	if err := s.farms.AppendSector(ctx, farmID, sector.SectorID); err != nil {
		return nil, err
	}

	s.logger.Info("Sector created",
		zap.String("sector_id", sector.SectorID),
		zap.String("farm_id", farmID),
		zap.String("device_id", deviceID),
	)
	return sector, nil
}

// DeleteSectorCascade tears down a sector and everything hanging off it.
// Every step is idempotent, so a failed run can simply be retried; an
// already-deleted sector returns success.
func (s *SectorService) DeleteSectorCascade(ctx context.Context, sectorID string) error {
	sector, err := s.sectors.GetSector(ctx, sectorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.telemetry.DeletePartitions(ctx, sectorID); err != nil {
		return err
	}
	if err := s.plants.DeleteBySector(ctx, sectorID); err != nil {
		return err
	}
	if err := s.anomalies.DeleteBySector(ctx, sectorID); err != nil {
		return err
	}
	if sector.DeviceID != "" {
		if err := s.devices.UnlinkDevice(ctx, sector.DeviceID); err != nil {
			return err
		}
	}
	if err := s.farms.RemoveSector(ctx, sector.FarmID, sectorID); err != nil {
		return err
	}
	if err := s.sectors.DeleteSector(ctx, sectorID); err != nil {
		return err
	}

	s.logger.Info("Sector deleted", zap.String("sector_id", sectorID))
	return nil
}
