package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"orgstructure/internal/config"
	"orgstructure/internal/db"
	"orgstructure/internal/httpapi"
	"orgstructure/internal/service"
	"orgstructure/internal/uow"
)

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}

func main() {
	// -- Configs preload --
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	// -- Logger --
	logger := newLogger(cfg)

	// -- Connect to DB --
	database, err := db.Connect(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection error")
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(database); err != nil {
			logger.Fatal().Err(err).Msg("database migration error")
		}
	}

	unitOfWork := uow.New(database,
		uow.WithReadOptions(&sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}),
		uow.WithLogger(logger),
	)
	departmentService := service.NewDepartmentService(unitOfWork, logger.With().Str("component", "service").Logger())

	// -- Router --
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(departmentService, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// -- Startup --
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// -- Shutdown --
	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info().Msg("server exited")
}
