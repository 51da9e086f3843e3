package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dashride/referral-service/internal/config"
)

// NewRedisClient creates a redis client and verifies connectivity
func NewRedisClient(cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port))

	return client, nil
}

// VisitRateLimiter is a fixed-window per-session counter backed by redis.
// The first visit in a window sets the key with an expiry; later visits only
// increment it.
type VisitRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

// NewVisitRateLimiter creates a new visit rate limiter
func NewVisitRateLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *VisitRateLimiter {
	return &VisitRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Allow reports whether the session is still under the visit cap.
func (l *VisitRateLimiter) Allow(ctx context.Context, sessionID string) (bool, error) {
	key := fmt.Sprintf("referral:visits:%s", sessionID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment visit counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn("failed to set visit counter expiry",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
	}

	return count <= int64(l.limit), nil
}
