package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/account-market/internal/api"
	"github.com/dom/account-market/internal/config"
	"github.com/dom/account-market/internal/logger"
	"github.com/dom/account-market/internal/repository"
	"github.com/dom/account-market/internal/repository/postgres"
	"github.com/dom/account-market/internal/repository/redis"
	"github.com/dom/account-market/internal/service"
	"github.com/dom/account-market/internal/websocket"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting", zap.Stringer("config", cfg))

	// The store must be reachable before anything is served.
	db, err := postgres.NewConnection(cfg.DatabaseURL, logger.GormLevel(cfg.DBLogLevel))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	if cfg.SessionBackend == config.SessionBackendRedis {
		client, err := redis.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		sessions := redis.NewSessionRepository(client)
		repos.Session = sessions
		repos.Store = repository.Pingers{repos.Store, sessions}
		log.Info("sessions stored in redis", zap.String("addr", cfg.RedisAddr))
	}

	// Initialize listing feed
	hub := websocket.NewHub(log)
	go hub.Run()

	// Initialize services
	services := service.NewServices(repos, cfg, log)
	services.Listing.SetPublisher(hub)

	scheduler, err := startPurge(services.Auth, cfg.SessionPurgeSchedule, log)
	if err != nil {
		log.Fatal("failed to schedule session purge", zap.Error(err))
	}

	// Initialize router
	router := api.NewRouter(services, hub, repos.Store, cfg, log)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	hub.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("server stopped")
}

// startPurge runs the expired-session sweep on schedule. An empty schedule
// disables it.
func startPurge(auth *service.AuthService, schedule string, log *zap.Logger) (*cron.Cron, error) {
	if schedule == "" {
		log.Info("session purge disabled")
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := auth.PurgeExpiredSessions(ctx); err != nil {
			log.Warn("session purge failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %w", schedule, err)
	}

	c.Start()
	log.Info("session purge scheduled", zap.String("schedule", schedule))
	return c, nil
}
