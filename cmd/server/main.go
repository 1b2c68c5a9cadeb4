package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"agency-scheduler/internal/app"
	"agency-scheduler/internal/config"
	"agency-scheduler/internal/logging"
	"agency-scheduler/internal/metrics"
	"agency-scheduler/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(cfg.Logging, cfg.App)
	metrics.Register()

	var store app.Store
	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to db")
		}
		defer pool.Close()

		pg := app.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		store = pg
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store")
		store = app.NewMemoryStore()
	}

	gcal := app.NewGoogleCalendar(cfg.Google, store, &logger)
	if gcal == nil {
		logger.Warn().Msg("google calendar not configured, slots will ignore external busy time")
	}

	busy := &app.BusySource{Meetings: store, Logger: &logger}
	if gcal != nil {
		busy.Calendar = gcal
	}
	booking := &app.BookingService{
		Rules:    store,
		Meetings: store,
		Busy:     busy,
		Logger:   &logger,
	}
	if gcal != nil {
		booking.Events = gcal
	}

	appInstance := &app.App{
		Store:    store,
		Busy:     busy,
		Booking:  booking,
		Calendar: gcal,
		Logger:   &logger,
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var authMW gin.HandlerFunc
	if len(cfg.Auth.StaticTokens) > 0 || cfg.Auth.JWTSecret != "" {
		authMW = app.AuthMiddleware(cfg.Auth)
	} else {
		logger.Warn().Msg("no auth tokens configured, API is open")
	}

	router := app.NewRouter(appInstance, authMW)
	if err := server.Run(router, cfg.Server.Port, &logger); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
