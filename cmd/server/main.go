package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dashride/referral-service/internal/config"
	"github.com/dashride/referral-service/internal/infrastructure/cache"
	"github.com/dashride/referral-service/internal/infrastructure/database"
	grpcServer "github.com/dashride/referral-service/internal/infrastructure/grpc"
	httpServer "github.com/dashride/referral-service/internal/infrastructure/http"
	"github.com/dashride/referral-service/internal/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize redis and the visit rate limiter
	redisClient, err := cache.NewRedisClient(&cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Error("Failed to close redis connection", zap.Error(err))
		}
	}()

	limiter := cache.NewVisitRateLimiter(redisClient,
		cfg.Referral.VisitRateLimit, cfg.Referral.VisitRateWindow, zapLogger)

	// Initialize repositories
	repos := database.NewRepositories(db, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize servers
	grpcSrv := grpcServer.NewServer(cfg, zapLogger)
	httpSrv := httpServer.NewServer(cfg, zapLogger, repos, limiter)

	// Start servers
	go func() {
		if err := grpcSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")

	// Shutdown servers
	if err := grpcSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Servers shut down successfully")
}
