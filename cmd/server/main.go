package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"route-history-service/internal/adapters/cache"
	"route-history-service/internal/adapters/provider"
	"route-history-service/internal/adapters/repositories"
	"route-history-service/internal/api"
	"route-history-service/internal/config"
	"route-history-service/internal/geoindex"
	"route-history-service/internal/platform/db"
	"route-history-service/internal/ports"
	"route-history-service/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, redis, the GPS vendors) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dbPath := config.Get("DB_PATH", "data/routes.db")
	locationSeedPath := config.Get("LOCATION_SEED_PATH", "data/seeds/locations.json")
	vehicleSeedPath := config.Get("VEHICLE_SEED_PATH", "data/seeds/vehicles.json")
	port := config.Get("PORT", "8080")

	sqliteDB, err := openDB(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer sqliteDB.Close()

	// Initialize schema and seed reference data on startup for local runs.
	if err := initAndSeed(sqliteDB, locationSeedPath, vehicleSeedPath); err != nil {
		log.Fatal(err)
	}

	registry := repositories.NewSqliteVehicleRepository(sqliteDB)
	locationRepo := repositories.NewSqliteLocationRepository(sqliteDB)
	credentialRepo := repositories.NewSqliteCredentialRepository(sqliteDB)

	if err := storeEnvCredentials(credentialRepo); err != nil {
		log.Fatal(err)
	}

	// The reference-location set loads once per session; refreshing it means
	// restarting the process, never mutating a live index.
	locations, err := locationRepo.ListLocations(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	index := geoindex.New(locations)
	analyzer := services.NewStopAnalyzer(index)
	log.Printf("loaded reference locations count=%d", index.Len())

	routeCache, err := selectRouteCache(sqliteDB)
	if err != nil {
		log.Fatal(err)
	}

	providers := map[string]ports.RouteProvider{
		"andaman": provider.NewAndamanProvider(),
		"siamgps": provider.NewSiamGPSProvider(),
	}

	orchestrator := services.NewRouteFetchOrchestrator(registry, routeCache, credentialRepo, providers)
	router := api.NewRouter(orchestrator, analyzer, registry, routeCache)

	// Timeouts are tuned for cold-cache batches (external vendor latency).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func openDB(dbPath string) (*sql.DB, error) {
	sqliteDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := sqliteDB.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return sqliteDB, nil
}

func initAndSeed(sqliteDB *sql.DB, locationSeedPath, vehicleSeedPath string) error {
	if err := repositories.InitSchema(sqliteDB); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(locationSeedPath); err == nil {
		if err := repositories.SeedLocationsFromJSON(sqliteDB, locationSeedPath); err != nil {
			return fmt.Errorf("init and seed: %w", err)
		}
	} else {
		log.Printf("no location seed file at %q, skipping", locationSeedPath)
	}

	if _, err := os.Stat(vehicleSeedPath); err == nil {
		if err := repositories.SeedVehiclesFromJSON(sqliteDB, vehicleSeedPath); err != nil {
			return fmt.Errorf("init and seed: %w", err)
		}
	} else {
		log.Printf("no vehicle seed file at %q, skipping", vehicleSeedPath)
	}

	return nil
}

// storeEnvCredentials seeds provider tokens from the environment so a fresh
// deployment can fetch without a manual credential insert.
func storeEnvCredentials(repo *repositories.SqliteCredentialRepository) error {
	ctx := context.Background()

	if auth := os.Getenv("ANDAMAN_AUTH"); auth != "" {
		creds := ports.Credentials{Authorization: auth, Token: os.Getenv("ANDAMAN_TOKEN")}
		if err := repo.Put(ctx, "andaman", creds); err != nil {
			return fmt.Errorf("store andaman credentials: %w", err)
		}
	}

	if auth := os.Getenv("SIAMGPS_AUTH"); auth != "" {
		if err := repo.Put(ctx, "siamgps", ports.Credentials{Authorization: auth}); err != nil {
			return fmt.Errorf("store siamgps credentials: %w", err)
		}
	}

	return nil
}

// selectRouteCache picks the route-cache backend: redis when REDIS_URL is
// set, a shared postgres store when DATABASE_URL is set, else the embedded
// SQLite store.
func selectRouteCache(sqliteDB *sql.DB) (ports.RouteCache, error) {
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("select route cache: parse REDIS_URL: %w", err)
		}
		log.Println("route cache backend: redis")
		return cache.NewRedisRouteCache(redis.NewClient(opts)), nil
	}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pgDB, err := db.Open(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("select route cache: %w", err)
		}
		log.Println("route cache backend: postgres")
		return cache.NewSQLRouteCache(pgDB), nil
	}

	log.Println("route cache backend: sqlite")
	return cache.NewSqliteRouteCache(sqliteDB), nil
}
