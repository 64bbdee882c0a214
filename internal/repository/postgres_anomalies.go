package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"verdantia-data/internal/domain"
)

// PostgresAnomaliesRepository anomalies table implementation.
type PostgresAnomaliesRepository struct {
	db *sql.DB
}

func NewPostgresAnomaliesRepository(db *sql.DB) *PostgresAnomaliesRepository {
	return &PostgresAnomaliesRepository{db: db}
}

var _ AnomaliesRepo = (*PostgresAnomaliesRepository)(nil)

func (r *PostgresAnomaliesRepository) CreateAnomaly(ctx context.Context, rec *domain.AnomalyRecord) error {
	summary := rec.Summary
	if len(summary) == 0 {
		summary = []byte("{}")
	}

	query := `
		INSERT INTO anomalies (anomaly_id, sector_id, created_at, summary)
		VALUES ($1, $2, $3, $4::jsonb)
	`
	_, err := r.db.ExecContext(ctx, query, rec.AnomalyID, rec.SectorID, rec.CreatedAt, []byte(summary))
	if err != nil {
		return fmt.Errorf("failed to create anomaly: %w", err)
	}
	return nil
}

func (r *PostgresAnomaliesRepository) GetAnomaly(ctx context.Context, anomalyID string) (*domain.AnomalyRecord, error) {
	query := `
		SELECT anomaly_id, sector_id, created_at, summary
		FROM anomalies
		WHERE anomaly_id = $1
	`

	var rec domain.AnomalyRecord
	var summaryRaw []byte
	err := r.db.QueryRowContext(ctx, query, anomalyID).Scan(
		&rec.AnomalyID, &rec.SectorID, &rec.CreatedAt, &summaryRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get anomaly: %w", err)
	}
	rec.Summary = summaryRaw
	return &rec, nil
}

func (r *PostgresAnomaliesRepository) ListBySector(ctx context.Context, sectorID string, start, end time.Time) ([]*domain.AnomalyRecord, error) {
	query := `
		SELECT anomaly_id, sector_id, created_at, summary
		FROM anomalies
		WHERE sector_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, sectorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list anomalies: %w", err)
	}
	defer rows.Close()

	var records []*domain.AnomalyRecord
	for rows.Next() {
		var rec domain.AnomalyRecord
		var summaryRaw []byte
		if err := rows.Scan(&rec.AnomalyID, &rec.SectorID, &rec.CreatedAt, &summaryRaw); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		rec.Summary = summaryRaw
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *PostgresAnomaliesRepository) DeleteBySector(ctx context.Context, sectorID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM anomalies WHERE sector_id = $1`, sectorID)
	if err != nil {
		return fmt.Errorf("failed to delete anomalies: %w", err)
	}
	return nil
}
