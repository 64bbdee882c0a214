package repository

import (
	"context"
	"database/sql"
	"fmt"

	"verdantia-data/internal/domain"
)

// PostgresDevicesRepository devices table implementation.
type PostgresDevicesRepository struct {
	db *sql.DB
}

func NewPostgresDevicesRepository(db *sql.DB) *PostgresDevicesRepository {
	return &PostgresDevicesRepository{db: db}
}

var _ DevicesRepo = (*PostgresDevicesRepository)(nil)

func (r *PostgresDevicesRepository) RegisterDevice(ctx context.Context, device *domain.Device) error {
	query := `
		INSERT INTO devices (
			device_id, device_name, device_location, created_at, link_sector, link_user
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		device.DeviceID, device.DeviceName, device.DeviceLocation,
		device.CreatedAt, device.LinkSector, device.LinkUser,
	)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (r *PostgresDevicesRepository) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	query := `
		SELECT device_id, device_name, device_location, created_at, link_sector, link_user
		FROM devices
		WHERE device_id = $1
	`

	var device domain.Device
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&device.DeviceID, &device.DeviceName, &device.DeviceLocation,
		&device.CreatedAt, &device.LinkSector, &device.LinkUser,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &device, nil
}

// LinkDevice binds a device in a single guarded statement; the WHERE clause
// enforces the at-most-one-sector invariant without a read-check race.
func (r *PostgresDevicesRepository) LinkDevice(ctx context.Context, deviceID, sectorID, userID string) error {
	query := `
		UPDATE devices
		SET link_sector = $2, link_user = $3
		WHERE device_id = $1 AND link_sector IS NULL AND link_user IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, deviceID, sectorID, userID)
	if err != nil {
		return fmt.Errorf("failed to link device: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check link result: %w", err)
	}
	if affected == 0 {
		// Either the device does not exist or it is already bound.
		if _, err := r.GetDevice(ctx, deviceID); err != nil {
			return err
		}
		return ErrDeviceLinked
	}
	return nil
}

func (r *PostgresDevicesRepository) UnlinkDevice(ctx context.Context, deviceID string) error {
	// Unlinking an unbound or absent device is a no-op (cascade retries).
	query := `
		UPDATE devices
		SET link_sector = NULL, link_user = NULL
		WHERE device_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, deviceID); err != nil {
		return fmt.Errorf("failed to unlink device: %w", err)
	}
	return nil
}
