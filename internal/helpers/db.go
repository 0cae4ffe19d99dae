package helpers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func OpenDB(cfg DBConfig, logger *slog.Logger) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name,
	)

	var db *sql.DB
	var err error
	for i := 0; i < 5; i++ {
		db, err = sql.Open("postgres", dsn)
		if err == nil {
			if err = db.Ping(); err == nil {
				break
			}
		}
		logger.Info("waiting for database", "attempt", i+1, "of", 5)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("could not reach database after 5 attempts: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	logger.Info("database connection established")

	if err := RunMigrations(db, logger); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates tables and indexes idempotently. The accounts table
// deliberately carries no non-negative balance CHECK: the issuing account is
// allowed to overdraw, and the rule for everyone else lives in the service.
func RunMigrations(db *sql.DB, logger *slog.Logger) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id         TEXT        PRIMARY KEY,
			balance    BIGINT      NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transfers (
			id             BIGSERIAL   PRIMARY KEY,
			source_id      TEXT        NOT NULL,
			destination_id TEXT        NOT NULL,
			amount         BIGINT      NOT NULL CHECK (amount > 0),
			transferred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS dole_claims (
			account_id    TEXT        PRIMARY KEY,
			last_doled_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_source_id
			ON transfers(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_destination_id
			ON transfers(destination_id)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	logger.Info("migrations completed")
	return nil
}
