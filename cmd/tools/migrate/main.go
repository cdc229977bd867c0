package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	var (
		dir  = flag.String("dir", "migrations", "path to migration files")
		down = flag.Bool("down", false, "roll back one migration instead of migrating up")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+*dir, pgxURL(dbURL))
	if err != nil {
		log.Fatalf("Failed to initialise migrator: %v", err)
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Migration failed: %v", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatalf("Failed to read migration version: %v", err)
	}
	log.Printf("Migrations applied. version=%d dirty=%v", version, dirty)
}

// pgxURL rewrites a postgres:// URL so golang-migrate picks its pgx/v5 driver.
func pgxURL(raw string) string {
	if strings.HasPrefix(raw, "postgresql://") {
		return "pgx5://" + strings.TrimPrefix(raw, "postgresql://")
	}
	if strings.HasPrefix(raw, "postgres://") {
		return "pgx5://" + strings.TrimPrefix(raw, "postgres://")
	}
	return raw
}
