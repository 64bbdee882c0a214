package domain

import "time"

// Sector is a monitored physical zone (corresponds to the sectors table).
type Sector struct {
	SectorID  string    `db:"sector_id"` // UUID, PRIMARY KEY
	FarmID    string    `db:"farm_id"`   // UUID, NOT NULL
	DeviceID  string    `db:"device_id"` // linked device, at most 1:1
	CreatedAt time.Time `db:"created_at"`

	// ParameterSettings maps parameter name -> [lowerBound, upperBound].
	// JSONB column, always updated merge-then-write.
	ParameterSettings map[string][2]float64 `db:"parameter_settings"`

	// TriggerSettings maps trigger name -> actuator on/off.
	// JSONB column, always updated merge-then-write.
	TriggerSettings map[string]bool `db:"trigger_settings"`

	// PlantList and AnomalyList hold child-record ids (JSONB arrays).
	// Traversal is sector -> children only.
	PlantList   []string `db:"plant_list"`
	AnomalyList []string `db:"anomaly_list"`
}

// DefaultParameterSettings are the valid ranges assigned to a new sector.
func DefaultParameterSettings() map[string][2]float64 {
	return map[string][2]float64{
		"surroundingTemperature": {20, 30},
		"surroundingHumidity":    {40, 60},
		"solutionTemperature":    {18, 22},
		"lightIntensity":         {200, 800},
		"tds":                    {0, 1200},
		"pH":                     {6, 7},
		"foggerTemperature":      {19, 29},
		"foggerHumidity":         {41, 61},
	}
}

// DefaultTriggerSettings are the actuator flags assigned to a new sector.
func DefaultTriggerSettings() map[string]bool {
	return map[string]bool{
		"lowTdsTrigger":  false,
		"highTdsTrigger": false,
		"lowPhTrigger":   false,
		"highPhTrigger":  false,
		"foggerTrigger":  false,
	}
}
