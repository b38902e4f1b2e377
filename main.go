// Package main provides the entry point for the indicator warehouse API server
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/glebarez/sqlite"
	"github.com/opendata-pt/indicator-hub/app/handlers"
	"github.com/opendata-pt/indicator-hub/app/middleware"
	"github.com/opendata-pt/indicator-hub/app/router"
	"github.com/opendata-pt/indicator-hub/app/services"
	businessflow "github.com/opendata-pt/indicator-hub/business_flow"
	"github.com/opendata-pt/indicator-hub/config"
	"github.com/opendata-pt/indicator-hub/models"
	"github.com/opendata-pt/indicator-hub/repository"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	log.Println("Starting indicator hub API...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	db, err := openDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	r, err := buildRouter(cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	r.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := r.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := r.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging installs rotating file output when configured
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output != "file" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
}

// openDatabase opens the warehouse store with connection pooling
func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established (driver=%s)", cfg.Driver)
	return db, nil
}

// migrate creates the warehouse schema
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Nuts{},
		&models.GeoLevel{},
		&models.GeoData{},
		&models.Indicator{},
		&models.Tag{},
		&models.IndicatorTag{},
		&models.Attribute{},
		&models.DataValue{},
		&models.ValueAttribute{},
		&models.StagingRecord{},
		&models.Checkpoint{},
		&models.User{},
	)
}

// buildRouter wires repositories, flows, handlers and middleware
func buildRouter(cfg *config.Config, db *gorm.DB) (router.Router, error) {
	tokenService, err := services.NewTokenService(cfg.JWT.AccessTokenTTL, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	indicatorRepo := repository.NewIndicatorRepository(db)
	dataValueRepo := repository.NewDataValueRepository(db)

	authFlow := businessflow.NewAuthFlow(userRepo, tokenService, int(cfg.JWT.AccessTokenTTL.Seconds()))
	indicatorFlow := businessflow.NewIndicatorFlow(indicatorRepo, dataValueRepo)

	authHandler := handlers.NewAuthHandler(authFlow)
	indicatorHandler := handlers.NewIndicatorHandler(indicatorFlow)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	return router.NewFiberRouter(cfg, authHandler, indicatorHandler, authMiddleware), nil
}
