package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kwakchaewon/surveypulse/internal/alarm"
	"github.com/kwakchaewon/surveypulse/internal/config"
	"github.com/kwakchaewon/surveypulse/internal/database"
	"github.com/kwakchaewon/surveypulse/internal/hub"
	"github.com/kwakchaewon/surveypulse/internal/logging"
	"github.com/kwakchaewon/surveypulse/internal/redis"
	"github.com/kwakchaewon/surveypulse/internal/server"
)

func setupConfig() *config.Config {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, h *hub.Hub, cancelDispatcher context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		cancelDispatcher()
		h.Stop()

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	notificationRepo := database.NewNotificationRepo(pool)
	surveyDirectory := database.NewSurveyDirectory(pool)
	userDirectory := database.NewUserDirectory(pool)

	pubsub := redis.NewPubSub(redisClient)
	publisher := alarm.NewPublisher(notificationRepo, surveyDirectory, pubsub)

	connectionHub := hub.New(clockwork.NewRealClock())

	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	dispatcher := alarm.NewDispatcher(pubsub, connectionHub)
	go dispatcher.Start(dispatcherCtx)

	srv := server.NewServer(cfg, connectionHub, notificationRepo, userDirectory, publisher, redisClient, pool)

	done := runGracefulShutdown(srv, connectionHub, cancelDispatcher)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
