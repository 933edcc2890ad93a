package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/mirokatsu/osu-streak-tracker/config"
	"github.com/mirokatsu/osu-streak-tracker/db"
	"github.com/mirokatsu/osu-streak-tracker/handlers"
	"github.com/mirokatsu/osu-streak-tracker/osuapi"
	"github.com/mirokatsu/osu-streak-tracker/repositories"
	api "github.com/mirokatsu/osu-streak-tracker/routes"
	"github.com/mirokatsu/osu-streak-tracker/scheduler"
	"github.com/mirokatsu/osu-streak-tracker/scraper"
	"github.com/mirokatsu/osu-streak-tracker/services"
	"github.com/mirokatsu/osu-streak-tracker/storage"
)

// Cron specs, both evaluated in UTC. The scrape runs shortly before the
// daily challenge rolls over so the day's leaderboard is complete.
const (
	reconcileSpec = "0,30 * * * *"
	scrapeSpec    = "40 23 * * *"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.EnsureSchema(context.Background(), dbConn); err != nil {
		logger.Error("failed to ensure database schema", slog.Any("error", err))
		os.Exit(1)
	}

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)

	osuClient := osuapi.New(cfg.OsuClientID, cfg.OsuClientSecret)
	dailyScraper := scraper.New(logger)
	streakerService := services.NewStreakerService(playerRepo)

	var publisher services.SnapshotPublisher
	if cfg.SnapshotPublishingEnabled() {
		r2Publisher, err := storage.NewCloudflareR2Publisher(storage.CloudflareR2PublisherConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 publisher", slog.Any("error", err))
			os.Exit(1)
		}
		publisher = r2Publisher
		logger.Info("Cloudflare R2 snapshot publisher initialized")
	} else {
		logger.Info("snapshot publishing disabled, R2 settings not configured")
	}

	updateService := services.NewUpdateService(playerRepo, osuClient, dailyScraper, streakerService, publisher, logger)
	trackerService := services.NewTrackerService(updateService, playerRepo, logger)
	authService := services.NewAuthService(cfg.AdminPasswordHash)
	logger.Info("services initialized")

	if cfg.TrackedPlayersFile != "" {
		if err := trackerService.SeedFromFile(cfg.TrackedPlayersFile); err != nil {
			logger.Error("failed to seed tracked players",
				slog.String("file", cfg.TrackedPlayersFile),
				slog.Any("error", err))
		}
	}

	streakersHandler := handlers.NewStreakersHandler(streakerService)
	manageHandler := handlers.NewManageHandler(trackerService)
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)

	router := chi.NewRouter()
	api.SetupRoutes(router, streakersHandler, manageHandler, authHandler, cfg.JWTSecretKey)
	logger.Info("routes configured")

	sched := scheduler.New(logger)
	if err := sched.AddJob("reconcile", reconcileSpec, updateService.RunReconcilePass); err != nil {
		logger.Error("failed to register reconcile job", slog.Any("error", err))
		os.Exit(1)
	}
	if err := sched.AddJob("scrape", scrapeSpec, updateService.RunScrapePass); err != nil {
		logger.Error("failed to register scrape job", slog.Any("error", err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		if err := trackerService.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		sched.Start()
		logger.Info("scheduler started",
			slog.String("reconcile", reconcileSpec),
			slog.String("scrape", scrapeSpec))

		// Run one reconcile pass at startup so a fresh deployment serves
		// data before the first scheduled tick.
		if err := updateService.RunReconcilePass(groupCtx); err != nil {
			logger.Error("initial reconcile pass failed", slog.Any("error", err))
		}

		<-groupCtx.Done()
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutdown signal received")

		<-sched.Stop().Done()
		logger.Info("scheduler stopped")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}
