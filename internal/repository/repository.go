package repository

import (
	"context"
	"errors"
	"time"

	"verdantia-data/internal/domain"
)

var (
	// ErrNotFound record absent; surfaced to callers, never retried.
	ErrNotFound = errors.New("record not found")

	// ErrDeviceLinked device already bound to a sector or user.
	ErrDeviceLinked = errors.New("device already linked")
)

// FarmsRepo farms table access.
type FarmsRepo interface {
	CreateFarm(ctx context.Context, farm *domain.Farm) error
	GetFarm(ctx context.Context, farmID string) (*domain.Farm, error)
	AppendSector(ctx context.Context, farmID, sectorID string) error
	// RemoveSector is idempotent: removing an absent id is a no-op.
	RemoveSector(ctx context.Context, farmID, sectorID string) error
}

// SectorsRepo sectors table access. The settings maps are JSONB columns
// updated merge-then-write in a single statement, never replaced.
type SectorsRepo interface {
	CreateSector(ctx context.Context, sector *domain.Sector) error
	GetSector(ctx context.Context, sectorID string) (*domain.Sector, error)
	// DeleteSector is idempotent for cascade retries.
	DeleteSector(ctx context.Context, sectorID string) error
	ListSectorIDs(ctx context.Context) ([]string, error)

	GetParameterSettings(ctx context.Context, sectorID string) (map[string][2]float64, error)
	MergeParameterSettings(ctx context.Context, sectorID string, partial map[string][2]float64) error
	GetTriggerSettings(ctx context.Context, sectorID string) (map[string]bool, error)
	MergeTriggerSettings(ctx context.Context, sectorID string, partial map[string]bool) error

	AppendAnomaly(ctx context.Context, sectorID, anomalyID string) error
	AppendPlant(ctx context.Context, sectorID, plantID string) error
	RemovePlant(ctx context.Context, sectorID, plantID string) error
}

// DevicesRepo devices table access.
type DevicesRepo interface {
	RegisterDevice(ctx context.Context, device *domain.Device) error
	GetDevice(ctx context.Context, deviceID string) (*domain.Device, error)
	// LinkDevice binds a free device to a sector and owning user; a device
	// already bound returns ErrDeviceLinked (at-most-1:1 invariant).
	LinkDevice(ctx context.Context, deviceID, sectorID, userID string) error
	// UnlinkDevice is idempotent.
	UnlinkDevice(ctx context.Context, deviceID string) error
}

// UsersRepo users table access.
type UsersRepo interface {
	RegisterUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	UpdateMessageToken(ctx context.Context, userID, token string) error
	UpdateNotificationSettings(ctx context.Context, userID string, settings []bool) error
	AppendNotification(ctx context.Context, userID string, n domain.Notification) error
	RemoveNotifications(ctx context.Context, userID string, ids []string) error
}

// PlantsRepo plants table access.
type PlantsRepo interface {
	AddPlant(ctx context.Context, plant *domain.Plant) error
	GetPlant(ctx context.Context, plantID string) (*domain.Plant, error)
	UpdatePlant(ctx context.Context, plant *domain.Plant) error
	DeletePlant(ctx context.Context, plantID string) error
	ListBySector(ctx context.Context, sectorID string) ([]*domain.Plant, error)
	// DeleteBySector is idempotent for cascade retries.
	DeleteBySector(ctx context.Context, sectorID string) error
}

// AnomaliesRepo anomalies table access. Records are immutable.
type AnomaliesRepo interface {
	CreateAnomaly(ctx context.Context, rec *domain.AnomalyRecord) error
	GetAnomaly(ctx context.Context, anomalyID string) (*domain.AnomalyRecord, error)
	ListBySector(ctx context.Context, sectorID string, start, end time.Time) ([]*domain.AnomalyRecord, error)
	// DeleteBySector is idempotent for cascade retries.
	DeleteBySector(ctx context.Context, sectorID string) error
}
