package domain

import "time"

// ImportantDate is a dated task attached to a plant; due dates feed the
// reminder sweep.
type ImportantDate struct {
	Date string `json:"date"` // YYYY-MM-DD
	Note string `json:"note"`
}

// PlantRecord is a free-form growth log entry.
type PlantRecord struct {
	Date string `json:"date"`
	Note string `json:"note"`
}

// Plant corresponds to the plants table; child of a sector.
type Plant struct {
	PlantID   string    `db:"plant_id"` // UUID, PRIMARY KEY
	SectorID  string    `db:"sector_id"`
	PlantName string    `db:"plant_name"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`

	Records        []PlantRecord   `db:"records"`         // JSONB
	ImportantDates []ImportantDate `db:"important_dates"` // JSONB
}
