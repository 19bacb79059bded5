package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// migrator is the subset of *migrate.Migrate the command drives.
type migrator interface {
	Up() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
}

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()
	log := logger.L()

	mode := flag.String("mode", "up", "migration mode: up, down or version")
	steps := flag.Int("steps", 1, "number of migrations to roll back in down mode")
	dir := flag.String("dir", "./migrations", "migrations directory")
	flag.Parse()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL not set in environment")
	}

	conn, err := db.NewPostgres(dbURL)
	if err != nil {
		log.Fatal("failed to connect db", zap.Error(err))
	}
	defer conn.Close()

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		log.Fatal("could not create migration driver", zap.Error(err))
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+*dir, "postgres", driver)
	if err != nil {
		log.Fatal("could not create migrate instance", zap.Error(err))
	}

	if err := run(m, *mode, *steps); err != nil {
		log.Fatal("migration failed", zap.String("mode", *mode), zap.Error(err))
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal("failed to read schema version", zap.Error(err))
	}
	log.Info("schema at version", zap.Uint("version", version), zap.Bool("dirty", dirty))
}

func run(m migrator, mode string, steps int) error {
	var err error
	switch mode {
	case "up":
		err = m.Up()
	case "down":
		if steps < 1 {
			return fmt.Errorf("steps must be at least 1, got %d", steps)
		}
		err = m.Steps(-steps)
	case "version":
		_, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			return verr
		}
		if dirty {
			return errors.New("schema is dirty; fix the failed migration and force the version")
		}
		return nil
	default:
		return fmt.Errorf("unknown mode: %s (use 'up', 'down' or 'version')", mode)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.L().Info("no migrations to apply")
		return nil
	}
	return err
}
