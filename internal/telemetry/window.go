package telemetry

import (
	"context"
	"errors"
	"time"

	"verdantia-data/internal/domain"
)

// Aggregator reconstructs the most recent N readings per parameter by
// walking day partitions backward from today.
type Aggregator struct {
	store *Store

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

func NewAggregator(store *Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// LatestWindow accumulates readings per parameter, walking backward one
// calendar day at a time and prepending each day's readings, until every
// requested parameter holds targetCount readings or the walk reaches the
// sector's creation day. A day contributing more than the remaining need
// is tail-clipped (most recent readings kept, never the head), so the
// result is exactly the targetCount most recent readings in chronological
// order. Parameters with no historical data are omitted, not padded.
func (a *Aggregator) LatestWindow(ctx context.Context, sectorID string, createdAt time.Time,
	params []string, targetCount int) (map[string][]domain.Reading, error) {

	acc := map[string][]domain.Reading{}
	if targetCount <= 0 || len(params) == 0 {
		return acc, nil
	}

	wanted := make(map[string]bool, len(params))
	for _, p := range params {
		wanted[p] = true
	}

	loc := a.store.Location()
	day := truncateToDay(a.now().In(loc))
	floor := truncateToDay(createdAt.In(loc))

	for !day.Before(floor) {
		doc, err := a.store.ReadDay(ctx, sectorID, day.Format(DayLayout))
		if err != nil && !errors.Is(err, ErrDayNotFound) {
			return nil, err
		}
		if err == nil {
			for param, readings := range doc {
				if !wanted[param] || len(readings) == 0 {
					continue
				}
				need := targetCount - len(acc[param])
				if need <= 0 {
					continue
				}
				if len(readings) > need {
					readings = readings[len(readings)-need:]
				}
				buf := make([]domain.Reading, 0, len(readings)+len(acc[param]))
				buf = append(buf, readings...)
				acc[param] = append(buf, acc[param]...)
			}
		}
		if windowSatisfied(acc, params, targetCount) {
			break
		}
		day = day.AddDate(0, 0, -1)
	}

	return acc, nil
}

// windowSatisfied only when every requested parameter reached the target.
// A parameter not seen yet keeps the walk going (it may have older data);
// the creation-day floor bounds the cost.
func windowSatisfied(acc map[string][]domain.Reading, params []string, target int) bool {
	for _, p := range params {
		if len(acc[p]) < target {
			return false
		}
	}
	return true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
