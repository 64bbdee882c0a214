package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"verdantia-data/internal/domain"
	"verdantia-data/internal/store"

	"go.uber.org/zap"
)

// Timestamp layout inside documents: local wall clock in the partition
// zone, no offset. Lexical order equals chronological order.
const (
	TimestampLayout = "2006-01-02T15:04:05"
	DayLayout       = "2006-01-02"
	MonthLayout     = "2006-01"
)

// ErrDayNotFound day-partition document absent (sparse days are normal).
var ErrDayNotFound = errors.New("day document not found")

// Store is the time-partitioned telemetry ledger: one JSON document per
// sector per calendar day, plus a per-sector latest snapshot. All day
// boundaries are computed in the single configured partition zone.
type Store struct {
	kv     store.KV
	loc    *time.Location
	logger *zap.Logger
}

func NewStore(kv store.KV, loc *time.Location, logger *zap.Logger) *Store {
	return &Store{kv: kv, loc: loc, logger: logger}
}

// Location returns the partition zone the store was built with.
func (s *Store) Location() *time.Location { return s.loc }

func dayKey(sectorID, monthID, dayID string) string {
	return "ts:" + sectorID + ":" + monthID + ":" + dayID
}

func snapshotKey(sectorID string) string {
	return "sector:" + sectorID + ":latest"
}

// AppendReading appends one reading per parameter to the sector's current
// day document and refreshes the latest snapshot. Both documents commit in
// one atomic write: a reader never sees the reading without the snapshot
// or vice versa.
func (s *Store) AppendReading(ctx context.Context, sectorID string, at time.Time,
	values map[string]float64, predictions map[string]*float64, anomaly bool) error {

	local := at.In(s.loc)
	ts := local.Format(TimestampLayout)
	dayID := local.Format(DayLayout)
	monthID := local.Format(MonthLayout)
	dk := dayKey(sectorID, monthID, dayID)

	doc, err := s.readDayDoc(ctx, dk)
	if err != nil {
		return err
	}

	snap, err := s.Snapshot(ctx, sectorID)
	if err != nil {
		return err
	}

	for param, value := range values {
		doc[param] = append(doc[param], domain.Reading{
			Timestamp:     ts,
			Value:         value,
			Prediction:    predictions[param],
			AnomalyStatus: anomaly,
		})
		snap.LatestData[param] = domain.Point{Timestamp: ts, Value: value}
	}
	snap.LastUpdate = ts
	snap.Status = domain.StatusOnline

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal day document: %w", err)
	}
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.kv.SetMulti(ctx, map[string]string{
		dk:                    string(docJSON),
		snapshotKey(sectorID): string(snapJSON),
	}); err != nil {
		return fmt.Errorf("failed to write reading: %w", err)
	}

	s.logger.Debug("Reading appended",
		zap.String("sector_id", sectorID),
		zap.String("day", dayID),
		zap.Int("parameters", len(values)),
	)
	return nil
}

// ReadDay returns the day-partition document for dayID (YYYY-MM-DD).
// Absent days return ErrDayNotFound.
func (s *Store) ReadDay(ctx context.Context, sectorID, dayID string) (domain.DayDocument, error) {
	if len(dayID) < len(DayLayout) {
		return nil, fmt.Errorf("invalid day id %q", dayID)
	}
	raw, err := s.kv.Get(ctx, dayKey(sectorID, dayID[:len(MonthLayout)], dayID))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, ErrDayNotFound
		}
		return nil, err
	}
	var doc domain.DayDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("corrupt day document %s/%s: %w", sectorID, dayID, err)
	}
	return doc, nil
}

// ReadMonth concatenates all of the month's day documents per parameter,
// in key-enumeration order. Enumeration order is not guaranteed
// chronological; callers needing strict order sort by reading timestamp.
func (s *Store) ReadMonth(ctx context.Context, sectorID, monthID string) (domain.DayDocument, error) {
	keys, err := s.kv.ScanKeys(ctx, dayKey(sectorID, monthID, "*"))
	if err != nil {
		return nil, err
	}
	merged := domain.DayDocument{}
	for _, key := range keys {
		raw, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrMiss) {
				continue // deleted between scan and read
			}
			return nil, err
		}
		var doc domain.DayDocument
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("corrupt day document %s: %w", key, err)
		}
		for param, readings := range doc {
			merged[param] = append(merged[param], readings...)
		}
	}
	return merged, nil
}

// Snapshot returns the sector's latest document. Sectors that never
// reported get an empty snapshot, not an error.
func (s *Store) Snapshot(ctx context.Context, sectorID string) (*domain.Snapshot, error) {
	raw, err := s.kv.Get(ctx, snapshotKey(sectorID))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return &domain.Snapshot{LatestData: map[string]domain.Point{}}, nil
		}
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("corrupt snapshot for %s: %w", sectorID, err)
	}
	if snap.LatestData == nil {
		snap.LatestData = map[string]domain.Point{}
	}
	return &snap, nil
}

// SetStatus overwrites the snapshot's liveness status. Used by the
// liveness sweep only; the ingest path sets status through AppendReading.
func (s *Store) SetStatus(ctx context.Context, sectorID, status string) error {
	snap, err := s.Snapshot(ctx, sectorID)
	if err != nil {
		return err
	}
	snap.Status = status
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return s.kv.SetMulti(ctx, map[string]string{snapshotKey(sectorID): string(snapJSON)})
}

// DeletePartitions removes every day partition and the snapshot of a
// sector. Safe to retry: partitions already deleted are simply absent.
func (s *Store) DeletePartitions(ctx context.Context, sectorID string) error {
	keys, err := s.kv.ScanKeys(ctx, dayKey(sectorID, "*", "*"))
	if err != nil {
		return err
	}
	keys = append(keys, snapshotKey(sectorID))
	if err := s.kv.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete partitions for %s: %w", sectorID, err)
	}
	s.logger.Info("Sector partitions deleted",
		zap.String("sector_id", sectorID),
		zap.Int("partitions", len(keys)-1),
	)
	return nil
}

func (s *Store) readDayDoc(ctx context.Context, key string) (domain.DayDocument, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return domain.DayDocument{}, nil
		}
		return nil, err
	}
	var doc domain.DayDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("corrupt day document %s: %w", key, err)
	}
	return doc, nil
}
