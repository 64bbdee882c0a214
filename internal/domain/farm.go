package domain

import "time"

// Farm corresponds to the farms table. SectorList is a JSONB array of
// sector ids.
type Farm struct {
	FarmID     string    `db:"farm_id"` // UUID, PRIMARY KEY
	FarmName   string    `db:"farm_name"`
	CreatedAt  time.Time `db:"created_at"`
	SectorList []string  `db:"sector_list"`
}
