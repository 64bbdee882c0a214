package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/predictor"
	"verdantia-data/internal/repository"
	"verdantia-data/internal/telemetry"
)

// Predictor is the model-server boundary the ingest pipeline talks to.
type Predictor interface {
	Predict(ctx context.Context, window map[string][]domain.Reading,
		parameterSettings map[string][2]float64) (*predictor.Result, error)
}

// sectorLocks hands out one mutex per sector id so concurrent submissions
// for the same sector serialize while distinct sectors proceed in parallel.
type sectorLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSectorLocks() *sectorLocks {
	return &sectorLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *sectorLocks) get(sectorID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[sectorID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sectorID] = m
	}
	return m
}

// IngestService runs the full submission pipeline: window assembly,
// prediction, rounding, the partition append and the follow-on effects.
type IngestService struct {
	sectors    repository.SectorsRepo
	telemetry  *telemetry.Store
	windows    *telemetry.Aggregator
	predictor  Predictor
	reconciler *Reconciler
	anomalies  *AnomalyService

	grace      time.Duration
	windowSize int
	locks      *sectorLocks
	logger     *zap.Logger
	now        func() time.Time
}

func NewIngestService(
	sectors repository.SectorsRepo,
	store *telemetry.Store,
	windows *telemetry.Aggregator,
	pred Predictor,
	reconciler *Reconciler,
	anomalies *AnomalyService,
	grace time.Duration,
	windowSize int,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		sectors:    sectors,
		telemetry:  store,
		windows:    windows,
		predictor:  pred,
		reconciler: reconciler,
		anomalies:  anomalies,
		grace:      grace,
		windowSize: windowSize,
		locks:      newSectorLocks(),
		logger:     logger,
		now:        time.Now,
	}
}

// Ingest processes one reading submission. Prediction runs before the
// append so the window never includes the reading being submitted. An
// unreachable model server degrades to the no-prediction result; a
// malformed model response fails the whole submission.
func (s *IngestService) Ingest(ctx context.Context, sectorID string, values map[string]float64) error {
	mu := s.locks.get(sectorID)
	mu.Lock()
	defer mu.Unlock()

	sector, err := s.sectors.GetSector(ctx, sectorID)
	if err != nil {
		return err
	}

	at := s.now().In(s.telemetry.Location())

	result, err := s.predict(ctx, sector, at)
	if err != nil {
		return err
	}

	// Submitted sensor values are stored verbatim; only the forecast
	// gets per-parameter display precision.
	predictions := make(map[string]*float64, len(result.Predictions))
	for param, p := range result.Predictions {
		if p == nil {
			predictions[param] = nil
			continue
		}
		v := roundValue(param, *p)
		predictions[param] = &v
	}

	if err := s.telemetry.AppendReading(ctx, sectorID, at, values, predictions, result.Anomaly); err != nil {
		return err
	}

	// Follow-on effects never fail a submission that already landed.
	if result.Anomaly {
		if _, err := s.anomalies.RecordAnomaly(ctx, sectorID, result.Summary, at); err != nil {
			s.logger.Error("Anomaly record failed",
				zap.String("sector_id", sectorID), zap.Error(err))
		}
	}
	if len(result.TriggerStatus) > 0 {
		if _, err := s.reconciler.Reconcile(ctx, sectorID, result.TriggerStatus); err != nil {
			s.logger.Error("Trigger reconciliation failed",
				zap.String("sector_id", sectorID), zap.Error(err))
		}
	}
	return nil
}

func (s *IngestService) predict(ctx context.Context, sector *domain.Sector, at time.Time) (*predictor.Result, error) {
	if at.Sub(sector.CreatedAt) < s.grace {
		return predictor.NoPrediction(), nil
	}

	window, err := s.windows.LatestWindow(ctx, sector.SectorID, sector.CreatedAt,
		predictor.ParameterKeys, s.windowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble window: %w", err)
	}

	result, err := s.predictor.Predict(ctx, window, sector.ParameterSettings)
	if err != nil {
		if errors.Is(err, predictor.ErrUpstreamUnavailable) {
			s.logger.Warn("Model server unreachable, storing reading without prediction",
				zap.String("sector_id", sector.SectorID), zap.Error(err))
			return predictor.NoPrediction(), nil
		}
		return nil, err
	}
	return result, nil
}

// roundValue applies per-parameter forecast precision: whole numbers for
// tds and lightIntensity, two decimals for the other parameters, trigger
// states pass through untouched.
func roundValue(param string, v float64) float64 {
	if strings.HasSuffix(param, "Trigger") {
		return v
	}
	switch param {
	case "tds", "lightIntensity":
		return math.Round(v)
	default:
		return math.Round(v*100) / 100
	}
}
