package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"route-history-service/internal/domain"
)

// SQLite-backed implementation of the VehicleRegistry port.
type SqliteVehicleRepository struct{ DB *sql.DB }

func NewSqliteVehicleRepository(db *sql.DB) *SqliteVehicleRepository {
	return &SqliteVehicleRepository{DB: db}
}

// Return all registered vehicles.
func (s *SqliteVehicleRepository) ListVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite vehicle repository: DB is nil")
	}

	query := `
	SELECT id, gps_device_id, name, provider, color
	FROM vehicles
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: query vehicles table: %w", err)
	}
	defer rows.Close()

	vehicles := make([]*domain.Vehicle, 0, 16)
	for rows.Next() {
		v := &domain.Vehicle{}
		if err := rows.Scan(&v.ID, &v.GPSDeviceID, &v.Name, &v.Provider, &v.Color); err != nil {
			return nil, fmt.Errorf("list vehicles: scan row: %w", err)
		}
		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: row iteration: %w", err)
	}

	return vehicles, nil
}

// Resolve a vehicle by the ID of the GPS unit it carries. Returns nil when
// the device is unknown.
func (s *SqliteVehicleRepository) VehicleByDeviceID(ctx context.Context, deviceID int) (*domain.Vehicle, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite vehicle repository: DB is nil")
	}

	query := `
	SELECT id, gps_device_id, name, provider, color
	FROM vehicles
	WHERE gps_device_id = ?;
	`
	v := &domain.Vehicle{}
	err := s.DB.QueryRowContext(ctx, query, deviceID).Scan(&v.ID, &v.GPSDeviceID, &v.Name, &v.Provider, &v.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vehicle by device %d: %w", deviceID, err)
	}

	return v, nil
}
