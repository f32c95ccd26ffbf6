package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createLocationsQuery := `
	CREATE TABLE IF NOT EXISTS locations (
		name TEXT PRIMARY KEY,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		kind TEXT NOT NULL
	);
	`

	createVehiclesQuery := `
	CREATE TABLE IF NOT EXISTS vehicles (
		id INTEGER PRIMARY KEY,
		gps_device_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		provider TEXT NOT NULL,
		color TEXT NOT NULL
	);
	`

	createCredentialsQuery := `
	CREATE TABLE IF NOT EXISTS provider_credentials (
		provider TEXT PRIMARY KEY,
		authorization TEXT NOT NULL DEFAULT '',
		token TEXT NOT NULL DEFAULT ''
	);
	`

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
		device_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		points BLOB NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (device_id, date)
	);
	`

	createDateIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_route_cache_date
	ON route_cache(date);
	`

	createDeviceIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_vehicles_gps_device_id
	ON vehicles(gps_device_id);
	`

	statements := []string{
		createLocationsQuery,
		createVehiclesQuery,
		createCredentialsQuery,
		createRouteCacheQuery,
		createDateIndexQuery,
		createDeviceIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type LocationSeed struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Kind string  `json:"kind"`
}

type VehicleSeed struct {
	ID          int    `json:"id"`
	GPSDeviceID int    `json:"gps_device_id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Color       string `json:"color"`
}

// Populate the reference-location table from a JSON file.
func SeedLocationsFromJSON(db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed locations: read %q: %w", jsonPath, err)
	}

	var data []LocationSeed
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed locations: parse json: %w", err)
	}

	for i, loc := range data {
		if strings.TrimSpace(loc.Name) == "" {
			return fmt.Errorf("seed locations: item at index %d: name cannot be empty", i+1)
		}
		switch loc.Kind {
		case "office", "pickup", "delivery", "service":
		default:
			return fmt.Errorf("seed locations: item %q: unknown kind %q", loc.Name, loc.Kind)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed locations: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO locations (name, lat, lng, kind)
	VALUES (?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed locations: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, loc := range data {
		if _, err := stmt.Exec(loc.Name, loc.Lat, loc.Lng, loc.Kind); err != nil {
			return fmt.Errorf("seed locations: insert %q: %w", loc.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed locations: commit tx: %w", err)
	}

	return nil
}

// Populate the vehicle registry from a JSON file.
func SeedVehiclesFromJSON(db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed vehicles: read %q: %w", jsonPath, err)
	}

	var data []VehicleSeed
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed vehicles: parse json: %w", err)
	}

	for i, v := range data {
		if v.ID <= 0 {
			return fmt.Errorf("seed vehicles: invalid id at index %d: %d", i+1, v.ID)
		}
		if v.GPSDeviceID <= 0 {
			return fmt.Errorf("seed vehicles: vehicle %d: invalid gps_device_id: %d", v.ID, v.GPSDeviceID)
		}
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("seed vehicles: vehicle %d: name cannot be empty", v.ID)
		}
		if strings.TrimSpace(v.Provider) == "" {
			return fmt.Errorf("seed vehicles: vehicle %d: provider cannot be empty", v.ID)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed vehicles: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO vehicles (id, gps_device_id, name, provider, color)
	VALUES (?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("seed vehicles: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range data {
		if _, err := stmt.Exec(v.ID, v.GPSDeviceID, v.Name, v.Provider, v.Color); err != nil {
			return fmt.Errorf("seed vehicles: insert id=%d: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed vehicles: commit tx: %w", err)
	}

	return nil
}
