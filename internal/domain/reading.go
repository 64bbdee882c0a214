package domain

// Reading is a single data point inside a day-partition document.
// Timestamp is a local wall-clock string ("2006-01-02T15:04:05") in the
// global partition time zone; lexical order equals chronological order.
type Reading struct {
	Timestamp     string   `json:"timestamp"`
	Value         float64  `json:"value"`
	Prediction    *float64 `json:"prediction"`
	AnomalyStatus bool     `json:"anomalyStatus"`
}

// DayDocument maps parameter name -> chronological reading sequence.
// Absent days mean "no readings that day", not "zero readings".
type DayDocument map[string][]Reading

// Point is the latest observed {timestamp, value} pair of one parameter.
type Point struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Snapshot is the per-sector "latest" document: most recent point per
// parameter plus liveness bookkeeping. It is written atomically with every
// reading append.
type Snapshot struct {
	LatestData map[string]Point `json:"latestData"`
	LastUpdate string           `json:"lastUpdate"`
	Status     string           `json:"status"`
}

// Sector liveness states.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)
