package domain

import (
	"encoding/json"
	"time"
)

// AnomalyRecord corresponds to the anomalies table. Immutable once
// created; referenced by id from the sector's anomaly list, never the
// other way around.
type AnomalyRecord struct {
	AnomalyID string    `db:"anomaly_id"` // UUID, PRIMARY KEY
	SectorID  string    `db:"sector_id"`  // owning sector
	CreatedAt time.Time `db:"created_at"`

	// Summary is the opaque detector payload (loss, threshold, indices).
	Summary json.RawMessage `db:"summary"` // JSONB
}
