package db

import (
	"database/sql"
	"fmt"

	"storefront-be/internal/logger"

	_ "github.com/lib/pq"
)

var driverName = "postgres"

// NewPostgres opens and pings the relational store used for users and the
// payment ledger.
func NewPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	logger.L().Info("postgres connection established")
	return db, nil
}
