package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDevicesDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresDevicesRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresDevicesRepository(db)
}

func TestLinkDevice_Success(t *testing.T) {
	db, mock, repo := setupMockDevicesDB(t)
	defer db.Close()

	deviceID := uuid.New().String()
	sectorID := uuid.New().String()

	mock.ExpectExec(`UPDATE devices`).
		WithArgs(deviceID, sectorID, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.LinkDevice(context.Background(), deviceID, sectorID, "user-1")

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkDevice_AlreadyLinked(t *testing.T) {
	db, mock, repo := setupMockDevicesDB(t)
	defer db.Close()

	deviceID := uuid.New().String()
	boundSector := uuid.New().String()

	// Guarded update touches no rows, then the existence probe finds a
	// device that is already bound elsewhere.
	mock.ExpectExec(`UPDATE devices`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT`).
		WithArgs(deviceID).
		WillReturnRows(sqlmock.NewRows([]string{
			"device_id", "device_name", "device_location", "created_at", "link_sector", "link_user",
		}).AddRow(deviceID, "unit-a", "greenhouse", time.Now(), boundSector, "user-9"))

	err := repo.LinkDevice(context.Background(), deviceID, uuid.New().String(), "user-1")

	assert.ErrorIs(t, err, ErrDeviceLinked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkDevice_MissingDevice(t *testing.T) {
	db, mock, repo := setupMockDevicesDB(t)
	defer db.Close()

	deviceID := uuid.New().String()

	mock.ExpectExec(`UPDATE devices`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT`).
		WithArgs(deviceID).
		WillReturnError(sql.ErrNoRows)

	err := repo.LinkDevice(context.Background(), deviceID, uuid.New().String(), "user-1")

	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnlinkDevice_AbsentDeviceIsNoop(t *testing.T) {
	db, mock, repo := setupMockDevicesDB(t)
	defer db.Close()

	deviceID := uuid.New().String()

	mock.ExpectExec(`UPDATE devices`).
		WithArgs(deviceID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UnlinkDevice(context.Background(), deviceID)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
