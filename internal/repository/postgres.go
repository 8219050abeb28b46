package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/crashmap/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	markersTable   = pgx.Identifier{"crash_markers"}
	markersColumns = []string{"source", "seq", "latitude", "longitude"}
)

// ReplaceMarkers stores coords as the marker set of source. The previous set of
// the same source is removed in the same transaction, so readers see either the
// old or the new set. It returns the number of rows copied.
func (r *Repository) ReplaceMarkers(ctx context.Context, source string, coords []models.Coordinates) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
		DELETE FROM crash_markers
		WHERE source = $1;
	`

	if _, err = tx.Exec(ctx, query, source); err != nil {
		r.rollback(ctx, tx)
		return 0, fmt.Errorf("failed to delete previous markers: %w", err)
	}

	rows := make([][]any, len(coords))
	for i, c := range coords {
		rows[i] = []any{source, i, c.Latitude, c.Longitude}
	}

	copied, err := tx.CopyFrom(ctx, markersTable, markersColumns, pgx.CopyFromRows(rows))
	if err != nil {
		r.rollback(ctx, tx)
		return 0, fmt.Errorf("failed to copy markers: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit markers: %w", err)
	}

	r.log.DebugContext(ctx, "Markers stored", "source", source, "count", copied)

	return copied, nil
}

// FetchMarkers returns the stored marker set of source in its original order.
func (r *Repository) FetchMarkers(ctx context.Context, source string) ([]models.Coordinates, error) {
	var coords []models.Coordinates
	query := `
		SELECT latitude, longitude
		FROM crash_markers
		WHERE source = $1
		ORDER BY seq ASC;
	`

	rows, err := r.db.Query(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query markers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Coordinates
		if errScan := rows.Scan(&c.Latitude, &c.Longitude); errScan != nil {
			return nil, fmt.Errorf("failed to scan marker: %w", errScan)
		}
		coords = append(coords, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return coords, nil
}

func (r *Repository) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil {
		r.log.ErrorContext(ctx, "Failed to roll back transaction", "error", err)
	}
}
