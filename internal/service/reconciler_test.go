package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"verdantia-data/internal/domain"
)

func seedSector(repo *fakeSectorsRepo, triggers map[string]bool) string {
	sector := &domain.Sector{
		SectorID:          "sector-1",
		FarmID:            "farm-1",
		CreatedAt:         time.Now(),
		ParameterSettings: domain.DefaultParameterSettings(),
		TriggerSettings:   triggers,
	}
	repo.sectors[sector.SectorID] = sector
	return sector.SectorID
}

func TestReconcile_TurnsTriggerOff(t *testing.T) {
	repo := newFakeSectorsRepo()
	sectorID := seedSector(repo, map[string]bool{
		"foggerTrigger": true,
		"lowTdsTrigger": false,
	})
	r := NewReconciler(repo, zap.NewNop())

	// Recommendation omits foggerTrigger entirely: omission means off.
	changed, err := r.Reconcile(context.Background(), sectorID, map[string]bool{
		"lowTdsTrigger": false,
	})

	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, repo.sectors[sectorID].TriggerSettings["foggerTrigger"])
	assert.False(t, repo.sectors[sectorID].TriggerSettings["lowTdsTrigger"])
}

func TestReconcile_NoChangeSkipsWrite(t *testing.T) {
	repo := newFakeSectorsRepo()
	sectorID := seedSector(repo, map[string]bool{
		"foggerTrigger": true,
		"lowPhTrigger":  false,
	})
	r := NewReconciler(repo, zap.NewNop())

	changed, err := r.Reconcile(context.Background(), sectorID, map[string]bool{
		"foggerTrigger": true,
	})

	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, repo.triggerSaves)
}

func TestReconcile_Idempotent(t *testing.T) {
	repo := newFakeSectorsRepo()
	sectorID := seedSector(repo, map[string]bool{
		"foggerTrigger":  false,
		"highTdsTrigger": false,
	})
	r := NewReconciler(repo, zap.NewNop())

	recommended := map[string]bool{"foggerTrigger": true}

	changed, err := r.Reconcile(context.Background(), sectorID, recommended)
	require.NoError(t, err)
	assert.True(t, changed)

	// Replaying the identical recommendation must not write again.
	changed, err = r.Reconcile(context.Background(), sectorID, recommended)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, repo.triggerSaves, 1)
}

func TestReconcile_NewTriggerNameAdopted(t *testing.T) {
	repo := newFakeSectorsRepo()
	sectorID := seedSector(repo, map[string]bool{"foggerTrigger": false})
	r := NewReconciler(repo, zap.NewNop())

	changed, err := r.Reconcile(context.Background(), sectorID, map[string]bool{
		"lowPhTrigger": true,
	})

	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, repo.sectors[sectorID].TriggerSettings["lowPhTrigger"])
}
