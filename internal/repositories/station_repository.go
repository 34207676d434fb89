package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "railbook/internal/config"
	intdb "railbook/internal/db"
	"railbook/internal/domain"
	"railbook/internal/domain/models"
	"railbook/internal/utils"
)

type StationRepository struct {
	DB *sql.DB
}

func (r StationRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// List returns the full station catalog ordered by name.
func (r StationRepository) List(ctx context.Context) ([]models.Station, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, station_code, station_name, city, state
		FROM stations
		ORDER BY station_name`)
	if err != nil {
		return nil, intdb.WrapErr(err)
	}
	defer rows.Close()

	out := []models.Station{}
	for rows.Next() {
		var s models.Station
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.City, &s.State); err != nil {
			return nil, intdb.WrapErr(err)
		}
		out = append(out, s)
	}
	return out, intdb.WrapErr(rows.Err())
}

// GetByCode resolves one station by its short code.
func (r StationRepository) GetByCode(ctx context.Context, code string) (models.Station, error) {
	var s models.Station
	err := r.db().QueryRowContext(ctx, `
		SELECT id, station_code, station_name, city, state
		FROM stations
		WHERE station_code = ?
		LIMIT 1`, utils.NormalizeStationCode(code)).
		Scan(&s.ID, &s.Code, &s.Name, &s.City, &s.State)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Station{}, domain.NotFoundError{Resource: "station"}
		}
		return models.Station{}, intdb.WrapErr(err)
	}
	return s, nil
}
