package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "verdantia", cfg.Database.Database)
	assert.Equal(t, "Asia/Kuala_Lumpur", cfg.Telemetry.PartitionTZ)
	assert.Equal(t, 100, cfg.Telemetry.WindowSize)
	assert.Equal(t, 24*time.Hour, cfg.Telemetry.GracePeriod)
	assert.Equal(t, 30*time.Minute, cfg.Liveness.Timeout)
	assert.Equal(t, time.Hour, cfg.Liveness.SweepInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WINDOW_SIZE", "50")
	t.Setenv("GRACE_PERIOD_HOURS", "48")
	t.Setenv("PARTITION_TZ", "UTC")

	cfg := Load()

	assert.Equal(t, 50, cfg.Telemetry.WindowSize)
	assert.Equal(t, 48*time.Hour, cfg.Telemetry.GracePeriod)

	loc, err := cfg.PartitionLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestPartitionLocation_Invalid(t *testing.T) {
	t.Setenv("PARTITION_TZ", "Not/AZone")

	cfg := Load()
	_, err := cfg.PartitionLocation()
	assert.Error(t, err)
}
