package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"route-history-service/internal/adapters/cache"
	"route-history-service/internal/platform/db"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// dbtool prepares the shared postgres route-cache store and runs maintenance
// sweeps. Usage: dbtool [init|sweep|stats]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pgDB, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pgDB.Close()

	command := "init"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx := context.Background()
	routeCache := cache.NewSQLRouteCache(pgDB)

	switch command {
	case "init":
		if err := initSchema(pgDB); err != nil {
			log.Fatal(err)
		}
		log.Println("route_cache schema ready")
	case "sweep":
		evicted, err := routeCache.ClearExpired(ctx)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("sweep complete evicted=%d", evicted)
	case "stats":
		stats, err := routeCache.Stats(ctx)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("entries=%d approx_bytes=%d", stats.Count, stats.ApproximateSizeBytes)
	default:
		log.Fatalf("unknown command %q (want init, sweep or stats)", command)
	}
}

func initSchema(pgDB *sql.DB) error {
	if pgDB == nil {
		return errors.New("init schema: DB is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS route_cache (
		device_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		points BYTEA NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (device_id, date)
	);
	CREATE INDEX IF NOT EXISTS idx_route_cache_date ON route_cache(date);
	`
	if _, err := pgDB.Exec(q); err != nil {
		return fmt.Errorf("init schema: create route_cache: %w", err)
	}

	return nil
}
