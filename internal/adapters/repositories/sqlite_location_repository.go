package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"route-history-service/internal/domain"
)

// SQLite-backed implementation of the LocationSource port.
type SqliteLocationRepository struct{ DB *sql.DB }

func NewSqliteLocationRepository(db *sql.DB) *SqliteLocationRepository {
	return &SqliteLocationRepository{DB: db}
}

// Return all reference locations stored in the database.
func (s *SqliteLocationRepository) ListLocations(ctx context.Context) ([]domain.NamedLocation, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite location repository: DB is nil")
	}

	query := `
	SELECT name, lat, lng, kind
	FROM locations
	ORDER BY name;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list locations: query locations table: %w", err)
	}
	defer rows.Close()

	locations := make([]domain.NamedLocation, 0, 32)
	for rows.Next() {
		var name, kind string
		var lat, lng float64
		if err := rows.Scan(&name, &lat, &lng, &kind); err != nil {
			return nil, fmt.Errorf("list locations: scan row: %w", err)
		}
		locations = append(locations, domain.NamedLocation{
			Name:  name,
			Point: domain.GeoPoint{Lat: lat, Lng: lng},
			Kind:  domain.LocationKind(kind),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: row iteration: %w", err)
	}

	return locations, nil
}
