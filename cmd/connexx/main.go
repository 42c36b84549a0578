package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/auth"
	"github.com/connexx-dev/connexx/internal/backup"
	"github.com/connexx-dev/connexx/internal/config"
	"github.com/connexx-dev/connexx/internal/handlers"
	"github.com/connexx-dev/connexx/internal/incident"
	"github.com/connexx-dev/connexx/internal/monitoring"
	"github.com/connexx-dev/connexx/internal/router"
	"github.com/connexx-dev/connexx/internal/scheduler"
	"github.com/connexx-dev/connexx/internal/security"
	"github.com/connexx-dev/connexx/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.Load()

	if err := auth.InitJWTSecret(); err != nil {
		log.Fatalf("Failed to initialize JWT: %v", err)
	}

	if err := db.ConnectDatabase(cfg.DatabaseDSN); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	errorLogger := monitoring.NewErrorLogger(db.DB, db.DefaultRetryPolicy())

	manager := security.NewManager(db.DB, time.Duration(cfg.SecurityRefreshSeconds)*time.Second)
	manager.SetAutoBlacklistPolicy(cfg.AutoBlacklistThreshold, time.Duration(cfg.BlacklistDurationHours)*time.Hour)
	if err := manager.LoadLists(); err != nil {
		log.Printf("Failed to load IP reputation lists: %v", err)
	}

	var honeypot *security.Honeypot
	if cfg.EnableHoneypot {
		honeypot = security.NewHoneypot(manager, db.DB)
	}

	flags := incident.NewFlagStore(cfg.StateDir)
	snapshotter := backup.NewSnapshotter(db.DB, cfg.BackupDir, cfg.BackupRetentionDays)

	responder := incident.NewResponder(db.DB, errorLogger,
		incident.DefaultActions(db.DB, manager, snapshotter, errorLogger, flags)...)

	handlers.Init(handlers.Deps{
		SecurityManager: manager,
		Honeypot:        honeypot,
		Responder:       responder,
		Flags:           flags,
		Snapshotter:     snapshotter,
		ErrorLogger:     errorLogger,
		Notifier:        services.NewNotifierFromEnv(),
	})

	jobs := scheduler.NewScheduler(cfg, manager, monitoring.NewReports(db.DB), snapshotter)
	jobs.Start()
	defer jobs.Stop()

	r := router.NewRouter(manager, honeypot, cfg.EnableThreatDetection)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
