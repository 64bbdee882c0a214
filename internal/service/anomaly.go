package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/predictor"
	"verdantia-data/internal/repository"
)

// AnomalyService turns detector hits into durable records and alerts.
type AnomalyService struct {
	anomalies repository.AnomaliesRepo
	sectors   repository.SectorsRepo
	devices   repository.DevicesRepo
	messaging *MessagingService
	logger    *zap.Logger
}

func NewAnomalyService(
	anomalies repository.AnomaliesRepo,
	sectors repository.SectorsRepo,
	devices repository.DevicesRepo,
	messaging *MessagingService,
	logger *zap.Logger,
) *AnomalyService {
	return &AnomalyService{
		anomalies: anomalies,
		sectors:   sectors,
		devices:   devices,
		messaging: messaging,
		logger:    logger,
	}
}

// RecordAnomaly persists the detector summary, links it from the sector's
// anomaly list and alerts the sector's owner. The record and the list
// entry must both land; the alert is best-effort.
func (s *AnomalyService) RecordAnomaly(ctx context.Context, sectorID string,
	summary *predictor.AnomalySummary, at time.Time) (string, error) {

	raw, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("failed to encode anomaly summary: %w", err)
	}

	rec := &domain.AnomalyRecord{
		AnomalyID: uuid.New().String(),
		SectorID:  sectorID,
		CreatedAt: at,
		Summary:   raw,
	}
	if err := s.anomalies.CreateAnomaly(ctx, rec); err != nil {
		return "", err
	}
	if err := s.sectors.AppendAnomaly(ctx, sectorID, rec.AnomalyID); err != nil {
		return "", err
	}

	if err := s.alertOwner(ctx, sectorID); err != nil {
		s.logger.Warn("Anomaly alert not delivered",
			zap.String("sector_id", sectorID), zap.Error(err))
	}
	return rec.AnomalyID, nil
}

// alertOwner resolves sector -> device -> owning user and sends the alert.
func (s *AnomalyService) alertOwner(ctx context.Context, sectorID string) error {
	sector, err := s.sectors.GetSector(ctx, sectorID)
	if err != nil {
		return err
	}
	if sector.DeviceID == "" {
		return nil
	}
	device, err := s.devices.GetDevice(ctx, sector.DeviceID)
	if err != nil {
		return err
	}
	if device.LinkUser == nil {
		return nil
	}
	return s.messaging.SendAlert(ctx, *device.LinkUser,
		"Anomaly Alert",
		fmt.Sprintf("Abnormal readings detected in sector %s. Please review the latest data.", sectorID),
	)
}
