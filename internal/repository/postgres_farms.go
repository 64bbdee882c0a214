package repository

import (
	"context"
	"database/sql"
	"fmt"

	"verdantia-data/internal/domain"
)

// PostgresFarmsRepository farms table implementation.
type PostgresFarmsRepository struct {
	db *sql.DB
}

func NewPostgresFarmsRepository(db *sql.DB) *PostgresFarmsRepository {
	return &PostgresFarmsRepository{db: db}
}

var _ FarmsRepo = (*PostgresFarmsRepository)(nil)

func (r *PostgresFarmsRepository) CreateFarm(ctx context.Context, farm *domain.Farm) error {
	sectorsJSON, err := marshalJSONB(farm.SectorList)
	if err != nil {
		return fmt.Errorf("failed to encode sector list: %w", err)
	}

	query := `
		INSERT INTO farms (farm_id, farm_name, created_at, sector_list)
		VALUES ($1, $2, $3, $4::jsonb)
	`
	_, err = r.db.ExecContext(ctx, query, farm.FarmID, farm.FarmName, farm.CreatedAt, sectorsJSON)
	if err != nil {
		return fmt.Errorf("failed to create farm: %w", err)
	}
	return nil
}

func (r *PostgresFarmsRepository) GetFarm(ctx context.Context, farmID string) (*domain.Farm, error) {
	query := `
		SELECT farm_id, farm_name, created_at, sector_list
		FROM farms
		WHERE farm_id = $1
	`

	var farm domain.Farm
	var sectorsRaw []byte
	err := r.db.QueryRowContext(ctx, query, farmID).Scan(
		&farm.FarmID, &farm.FarmName, &farm.CreatedAt, &sectorsRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get farm: %w", err)
	}

	if err := scanJSONB(sectorsRaw, &farm.SectorList); err != nil {
		return nil, fmt.Errorf("failed to decode sector list: %w", err)
	}
	return &farm, nil
}

func (r *PostgresFarmsRepository) AppendSector(ctx context.Context, farmID, sectorID string) error {
	query := `
		UPDATE farms
		SET sector_list = sector_list || to_jsonb($2::text)
		WHERE farm_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, farmID, sectorID)
	if err != nil {
		return fmt.Errorf("failed to append sector: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check append result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresFarmsRepository) RemoveSector(ctx context.Context, farmID, sectorID string) error {
	// Absent ids (and absent farms) no-op so cascade retries stay safe.
	query := `
		UPDATE farms
		SET sector_list = sector_list - $2
		WHERE farm_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, farmID, sectorID); err != nil {
		return fmt.Errorf("failed to remove sector: %w", err)
	}
	return nil
}
