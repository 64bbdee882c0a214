package repository

import (
	"context"
	"database/sql"
	"fmt"

	"verdantia-data/internal/domain"
)

// PostgresPlantsRepository plants table implementation.
type PostgresPlantsRepository struct {
	db *sql.DB
}

func NewPostgresPlantsRepository(db *sql.DB) *PostgresPlantsRepository {
	return &PostgresPlantsRepository{db: db}
}

var _ PlantsRepo = (*PostgresPlantsRepository)(nil)

func (r *PostgresPlantsRepository) AddPlant(ctx context.Context, plant *domain.Plant) error {
	recordsJSON, err := marshalJSONB(plant.Records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	datesJSON, err := marshalJSONB(plant.ImportantDates)
	if err != nil {
		return fmt.Errorf("failed to encode important dates: %w", err)
	}

	query := `
		INSERT INTO plants (
			plant_id, sector_id, plant_name, status, created_at, records, important_dates
		) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb)
	`
	_, err = r.db.ExecContext(ctx, query,
		plant.PlantID, plant.SectorID, plant.PlantName, plant.Status,
		plant.CreatedAt, recordsJSON, datesJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to add plant: %w", err)
	}
	return nil
}

func (r *PostgresPlantsRepository) GetPlant(ctx context.Context, plantID string) (*domain.Plant, error) {
	query := `
		SELECT plant_id, sector_id, plant_name, status, created_at, records, important_dates
		FROM plants
		WHERE plant_id = $1
	`

	var plant domain.Plant
	var recordsRaw, datesRaw []byte
	err := r.db.QueryRowContext(ctx, query, plantID).Scan(
		&plant.PlantID, &plant.SectorID, &plant.PlantName, &plant.Status,
		&plant.CreatedAt, &recordsRaw, &datesRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get plant: %w", err)
	}

	if err := scanJSONB(recordsRaw, &plant.Records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	if err := scanJSONB(datesRaw, &plant.ImportantDates); err != nil {
		return nil, fmt.Errorf("failed to decode important dates: %w", err)
	}
	return &plant, nil
}

func (r *PostgresPlantsRepository) UpdatePlant(ctx context.Context, plant *domain.Plant) error {
	recordsJSON, err := marshalJSONB(plant.Records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	datesJSON, err := marshalJSONB(plant.ImportantDates)
	if err != nil {
		return fmt.Errorf("failed to encode important dates: %w", err)
	}

	query := `
		UPDATE plants
		SET plant_name = $2, status = $3, records = $4::jsonb, important_dates = $5::jsonb
		WHERE plant_id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		plant.PlantID, plant.PlantName, plant.Status, recordsJSON, datesJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update plant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPlantsRepository) DeletePlant(ctx context.Context, plantID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM plants WHERE plant_id = $1`, plantID)
	if err != nil {
		return fmt.Errorf("failed to delete plant: %w", err)
	}
	return nil
}

func (r *PostgresPlantsRepository) ListBySector(ctx context.Context, sectorID string) ([]*domain.Plant, error) {
	query := `
		SELECT plant_id, sector_id, plant_name, status, created_at, records, important_dates
		FROM plants
		WHERE sector_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, sectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}
	defer rows.Close()

	var plants []*domain.Plant
	for rows.Next() {
		var plant domain.Plant
		var recordsRaw, datesRaw []byte
		if err := rows.Scan(
			&plant.PlantID, &plant.SectorID, &plant.PlantName, &plant.Status,
			&plant.CreatedAt, &recordsRaw, &datesRaw,
		); err != nil {
			return nil, fmt.Errorf("failed to scan plant: %w", err)
		}
		if err := scanJSONB(recordsRaw, &plant.Records); err != nil {
			return nil, fmt.Errorf("failed to decode records: %w", err)
		}
		if err := scanJSONB(datesRaw, &plant.ImportantDates); err != nil {
			return nil, fmt.Errorf("failed to decode important dates: %w", err)
		}
		plants = append(plants, &plant)
	}
	return plants, rows.Err()
}

func (r *PostgresPlantsRepository) DeleteBySector(ctx context.Context, sectorID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM plants WHERE sector_id = $1`, sectorID)
	if err != nil {
		return fmt.Errorf("failed to delete plants: %w", err)
	}
	return nil
}
