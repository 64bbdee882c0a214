package service

import (
	"context"

	"go.uber.org/zap"

	"verdantia-data/internal/repository"
)

// Reconciler converges stored trigger settings on the model server's
// recommendation. Writes happen only on real change, so replaying the
// same recommendation is idempotent.
type Reconciler struct {
	sectors repository.SectorsRepo
	logger  *zap.Logger
}

func NewReconciler(sectors repository.SectorsRepo, logger *zap.Logger) *Reconciler {
	return &Reconciler{sectors: sectors, logger: logger}
}

// Reconcile normalizes the recommendation over every known trigger name
// (a trigger the recommendation omits means "off") and writes the merged
// state if it differs from what is stored. Reports whether a write happened.
func (r *Reconciler) Reconcile(ctx context.Context, sectorID string, recommended map[string]bool) (bool, error) {
	current, err := r.sectors.GetTriggerSettings(ctx, sectorID)
	if err != nil {
		return false, err
	}

	desired := make(map[string]bool, len(current))
	for name := range current {
		desired[name] = recommended[name]
	}
	for name, on := range recommended {
		desired[name] = on
	}

	changed := len(desired) != len(current)
	if !changed {
		for name, on := range desired {
			if stored, ok := current[name]; !ok || stored != on {
				changed = true
				break
			}
		}
	}
	if !changed {
		return false, nil
	}

	if err := r.sectors.MergeTriggerSettings(ctx, sectorID, desired); err != nil {
		return false, err
	}
	r.logger.Info("Trigger settings reconciled",
		zap.String("sector_id", sectorID),
		zap.Int("triggers", len(desired)),
	)
	return true, nil
}
