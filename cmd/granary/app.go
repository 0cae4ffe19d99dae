package main

import (
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/granarybot/granary/internal/helpers"
	"github.com/granarybot/granary/internal/repository"
	"github.com/granarybot/granary/internal/service"
)

type config struct {
	env            string
	issuingAccount string
	doleCooldown   time.Duration
	topLimit       int
	redisURL       string
	redisPassword  string
	cacheTTL       time.Duration
	db             struct {
		host     string
		port     string
		user     string
		password string
		name     string
	}
}

type application struct {
	config config
	logger *slog.Logger
	db     *sql.DB
	ledger *service.Ledger
}

func newApplication() *application {
	cfg := config{}

	cfg.env = helpers.GetEnvAsStr("ENV", "development")
	cfg.issuingAccount = helpers.GetEnvAsStr("ISSUING_ACCOUNT", service.DefaultIssuingAccount)
	cfg.doleCooldown = helpers.GetEnvAsDuration("DOLE_COOLDOWN", service.DefaultCooldown)
	cfg.topLimit = helpers.GetEnvAsInt("TOP_LIMIT", service.DefaultTopLimit)
	cfg.redisURL = helpers.GetEnvAsStr("REDIS_URL", "")
	cfg.redisPassword = helpers.GetEnvAsStr("REDIS_PASSWORD", "")
	cfg.cacheTTL = helpers.GetEnvAsDuration("LEADERBOARD_CACHE_TTL", 30*time.Second)
	cfg.db.host = helpers.GetEnvAsStr("DB_HOST", "postgres")
	cfg.db.port = helpers.GetEnvAsStr("DB_PORT", "5432")
	cfg.db.user = helpers.GetEnvAsStr("DB_USER", "postgres")
	cfg.db.password = helpers.GetEnvAsStr("DB_PASSWORD", "postgres")
	cfg.db.name = helpers.GetEnvAsStr("DB_NAME", "granary")

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	return &application{
		config: cfg,
		logger: logger,
	}
}

func (app *application) connect() error {
	db, err := helpers.OpenDB(helpers.DBConfig{
		Host:     app.config.db.host,
		Port:     app.config.db.port,
		User:     app.config.db.user,
		Password: app.config.db.password,
		Name:     app.config.db.name,
	}, app.logger)
	if err != nil {
		return err
	}
	app.db = db

	opts := []service.Option{
		service.WithIssuingAccount(app.config.issuingAccount),
		service.WithCooldown(app.config.doleCooldown),
		service.WithTopLimit(app.config.topLimit),
	}
	if app.config.redisURL != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     app.config.redisURL,
			Password: app.config.redisPassword,
			DB:       0,
		})
		opts = append(opts, service.WithLeaderboardCache(rdb, app.config.cacheTTL))
	}

	app.ledger = service.NewLedger(repository.NewPostgresStore(db), opts...)
	return nil
}
