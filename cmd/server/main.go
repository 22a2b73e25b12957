package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/nils/studyflash/internal/api"
	"github.com/nils/studyflash/internal/config"
	"github.com/nils/studyflash/internal/db"
	"github.com/nils/studyflash/internal/logger"
	"github.com/nils/studyflash/internal/repository/sqlite"
	"github.com/nils/studyflash/internal/services"
	"github.com/nils/studyflash/internal/srs"
	"github.com/nils/studyflash/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("StudyFlash Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("mastery_threshold_days=%d", cfg.MasteryThresholdDays)
	log.Debug("daily_goal=%d", cfg.DefaultDailyGoal)
	log.Debug("summary_concurrency=%d", cfg.SummaryConcurrency)
	log.Debug("session_max_age_min=%d", cfg.SessionMaxAgeMinutes)
	log.Debug("sweep_interval_min=%d", cfg.SweepIntervalMinutes)
	log.Debug("reconcile_worker_count=%d", cfg.ReconcileWorkerCount)
	log.Debug("reconcile_queue_size=%d", cfg.ReconcileQueueSize)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Repositories
	users := sqlite.NewUserRepository(database.DB)
	decks := sqlite.NewDeckRepository(database.DB)
	cards := sqlite.NewCardRepository(database.DB)
	states := sqlite.NewReviewStateRepository(database.DB)
	sessions := sqlite.NewSessionRepository(database.DB)

	// Background reconcile queue
	reconcilePool := worker.NewPool(cfg.ReconcileWorkerCount, cfg.ReconcileQueueSize)

	// Services
	userService := services.NewUserService(users)
	deckService := services.NewDeckService(decks, cards)
	studyService := services.NewStudyService(decks, cards, states, sessions, srs.ContainmentMatcher{}, reconcilePool)
	progressService := services.NewProgressService(users, decks, cards, states, sessions, services.ProgressOptions{
		MasteryThresholdDays: cfg.MasteryThresholdDays,
		DefaultDailyGoal:     cfg.DefaultDailyGoal,
		Concurrency:          cfg.SummaryConcurrency,
	})

	srv := &api.Server{
		UserService:     userService,
		DeckService:     deckService,
		StudyService:    studyService,
		ProgressService: progressService,
	}

	ctx, cancel := context.WithCancel(context.Background())
	reconcilePool.Start(ctx)

	// Periodic sweep of sessions whose owner navigated away without
	// finalizing; they are abandoned once they exceed the staleness cutoff.
	sweeper := gocron.NewScheduler(time.UTC)
	sweepJob := &services.SessionSweepJob{
		Service: studyService,
		MaxAge:  time.Duration(cfg.SessionMaxAgeMinutes) * time.Minute,
	}
	if _, err := sweeper.Every(cfg.SweepIntervalMinutes).Minutes().Do(func() {
		reconcilePool.Submit(sweepJob)
	}); err != nil {
		log.Error("failed to schedule session sweep: %v", err)
		os.Exit(1)
	}
	sweeper.StartAsync()

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping sweep scheduler")
	sweeper.Stop()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping reconcile pool")
	cancel()
	reconcilePool.Stop()

	log.Info("===========================================")
	log.Info("StudyFlash Server Stopped")
	log.Info("===========================================")
}
