package repository

import (
	"context"
	"database/sql"
	"fmt"

	"verdantia-data/internal/domain"
)

// PostgresSectorsRepository sectors table implementation.
type PostgresSectorsRepository struct {
	db *sql.DB
}

func NewPostgresSectorsRepository(db *sql.DB) *PostgresSectorsRepository {
	return &PostgresSectorsRepository{db: db}
}

var _ SectorsRepo = (*PostgresSectorsRepository)(nil)

func (r *PostgresSectorsRepository) CreateSector(ctx context.Context, sector *domain.Sector) error {
	paramsJSON, err := marshalJSONB(sector.ParameterSettings)
	if err != nil {
		return fmt.Errorf("failed to encode parameter settings: %w", err)
	}
	triggersJSON, err := marshalJSONB(sector.TriggerSettings)
	if err != nil {
		return fmt.Errorf("failed to encode trigger settings: %w", err)
	}
	plantsJSON, err := marshalJSONB(sector.PlantList)
	if err != nil {
		return fmt.Errorf("failed to encode plant list: %w", err)
	}
	anomaliesJSON, err := marshalJSONB(sector.AnomalyList)
	if err != nil {
		return fmt.Errorf("failed to encode anomaly list: %w", err)
	}

	query := `
		INSERT INTO sectors (
			sector_id, farm_id, device_id, created_at,
			parameter_settings, trigger_settings, plant_list, anomaly_list
		) VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8::jsonb)
	`
	_, err = r.db.ExecContext(ctx, query,
		sector.SectorID, sector.FarmID, sector.DeviceID, sector.CreatedAt,
		paramsJSON, triggersJSON, plantsJSON, anomaliesJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create sector: %w", err)
	}
	return nil
}

func (r *PostgresSectorsRepository) GetSector(ctx context.Context, sectorID string) (*domain.Sector, error) {
	query := `
		SELECT
			sector_id, farm_id, device_id, created_at,
			parameter_settings, trigger_settings, plant_list, anomaly_list
		FROM sectors
		WHERE sector_id = $1
	`

	var sector domain.Sector
	var paramsRaw, triggersRaw, plantsRaw, anomaliesRaw []byte
	err := r.db.QueryRowContext(ctx, query, sectorID).Scan(
		&sector.SectorID, &sector.FarmID, &sector.DeviceID, &sector.CreatedAt,
		&paramsRaw, &triggersRaw, &plantsRaw, &anomaliesRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sector: %w", err)
	}

	if err := scanJSONB(paramsRaw, &sector.ParameterSettings); err != nil {
		return nil, fmt.Errorf("failed to decode parameter settings: %w", err)
	}
	if err := scanJSONB(triggersRaw, &sector.TriggerSettings); err != nil {
		return nil, fmt.Errorf("failed to decode trigger settings: %w", err)
	}
	if err := scanJSONB(plantsRaw, &sector.PlantList); err != nil {
		return nil, fmt.Errorf("failed to decode plant list: %w", err)
	}
	if err := scanJSONB(anomaliesRaw, &sector.AnomalyList); err != nil {
		return nil, fmt.Errorf("failed to decode anomaly list: %w", err)
	}
	return &sector, nil
}

func (r *PostgresSectorsRepository) DeleteSector(ctx context.Context, sectorID string) error {
	// Deleting an absent row is a no-op so cascade retries stay safe.
	_, err := r.db.ExecContext(ctx, `DELETE FROM sectors WHERE sector_id = $1`, sectorID)
	if err != nil {
		return fmt.Errorf("failed to delete sector: %w", err)
	}
	return nil
}

func (r *PostgresSectorsRepository) ListSectorIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT sector_id FROM sectors ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan sector id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresSectorsRepository) GetParameterSettings(ctx context.Context, sectorID string) (map[string][2]float64, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT parameter_settings FROM sectors WHERE sector_id = $1`, sectorID,
	).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get parameter settings: %w", err)
	}

	settings := make(map[string][2]float64)
	if err := scanJSONB(raw, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode parameter settings: %w", err)
	}
	return settings, nil
}

// MergeParameterSettings overlays the partial map onto the stored JSONB in
// one statement; keys not present in partial are untouched.
func (r *PostgresSectorsRepository) MergeParameterSettings(ctx context.Context, sectorID string, partial map[string][2]float64) error {
	if len(partial) == 0 {
		return nil
	}
	partialJSON, err := marshalJSONB(partial)
	if err != nil {
		return fmt.Errorf("failed to encode parameter settings: %w", err)
	}

	query := `
		UPDATE sectors
		SET parameter_settings = parameter_settings || $2::jsonb
		WHERE sector_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, sectorID, partialJSON)
	if err != nil {
		return fmt.Errorf("failed to merge parameter settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check merge result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresSectorsRepository) GetTriggerSettings(ctx context.Context, sectorID string) (map[string]bool, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT trigger_settings FROM sectors WHERE sector_id = $1`, sectorID,
	).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trigger settings: %w", err)
	}

	settings := make(map[string]bool)
	if err := scanJSONB(raw, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode trigger settings: %w", err)
	}
	return settings, nil
}

func (r *PostgresSectorsRepository) MergeTriggerSettings(ctx context.Context, sectorID string, partial map[string]bool) error {
	if len(partial) == 0 {
		return nil
	}
	partialJSON, err := marshalJSONB(partial)
	if err != nil {
		return fmt.Errorf("failed to encode trigger settings: %w", err)
	}

	query := `
		UPDATE sectors
		SET trigger_settings = trigger_settings || $2::jsonb
		WHERE sector_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, sectorID, partialJSON)
	if err != nil {
		return fmt.Errorf("failed to merge trigger settings: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check merge result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresSectorsRepository) AppendAnomaly(ctx context.Context, sectorID, anomalyID string) error {
	query := `
		UPDATE sectors
		SET anomaly_list = anomaly_list || to_jsonb($2::text)
		WHERE sector_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, sectorID, anomalyID)
	if err != nil {
		return fmt.Errorf("failed to append anomaly: %w", err)
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

func (r *PostgresSectorsRepository) AppendPlant(ctx context.Context, sectorID, plantID string) error {
	query := `
		UPDATE sectors
		SET plant_list = plant_list || to_jsonb($2::text)
		WHERE sector_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, sectorID, plantID)
	if err != nil {
		return fmt.Errorf("failed to append plant: %w", err)
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

func (r *PostgresSectorsRepository) RemovePlant(ctx context.Context, sectorID, plantID string) error {
	// jsonb "-" removes every matching string element; absent ids no-op.
	query := `
		UPDATE sectors
		SET plant_list = plant_list - $2
		WHERE sector_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, sectorID, plantID); err != nil {
		return fmt.Errorf("failed to remove plant: %w", err)
	}
	return nil
}
