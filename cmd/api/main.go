// cmd/api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/MuhammadAwais984/storefront/internal/infrastructure/database/gormdb"
	"github.com/MuhammadAwais984/storefront/internal/infrastructure/database/redis"
	"github.com/MuhammadAwais984/storefront/internal/interfaces/http"
	"github.com/MuhammadAwais984/storefront/internal/pkg/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.Logging)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting storefront API")

	db, err := gormdb.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	migration := gormdb.NewMigration(db.GetDB(), cfg, log)
	if err := migration.RunAutoMigrations(ctx); err != nil {
		log.WithError(err).Fatal("Database migration failed")
	}
	if err := migration.SeedInitialData(ctx); err != nil {
		log.WithError(err).Warn("Data seeding failed")
	}

	server, err := http.NewServer(cfg, db.GetDB(), redisClient.GetClient(), log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize HTTP server")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("HTTP server failed")
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}
