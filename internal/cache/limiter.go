// Package cache provides the Redis-backed login attempt limiter.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const loginAttemptsKey = "login:attempts:%s"

// LoginLimiterConfig tunes the failed-login throttle.
type LoginLimiterConfig struct {
	Address       string
	Password      string
	DB            int
	MaxAttempts   int
	LockoutWindow time.Duration
}

// LoginLimiter counts failed login attempts per account name in Redis.
// It degrades gracefully: when Redis is down, errors are returned and
// the auth service lets the attempt through rather than locking
// everyone out.
type LoginLimiter struct {
	client        *redis.Client
	maxAttempts   int
	lockoutWindow time.Duration
	logger        zerolog.Logger
}

// NewLoginLimiter connects to Redis and verifies connectivity.
func NewLoginLimiter(ctx context.Context, cfg LoginLimiterConfig, logger zerolog.Logger) (*LoginLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.LockoutWindow <= 0 {
		cfg.LockoutWindow = 15 * time.Minute
	}

	l := &LoginLimiter{
		client:        client,
		maxAttempts:   cfg.MaxAttempts,
		lockoutWindow: cfg.LockoutWindow,
		logger:        logger.With().Str("component", "login_limiter").Logger(),
	}
	l.logger.Info().Str("address", cfg.Address).Msg("connected to Redis")
	return l, nil
}

// TooManyAttempts reports whether the account has exhausted its window.
func (l *LoginLimiter) TooManyAttempts(ctx context.Context, name string) (bool, error) {
	count, err := l.client.Get(ctx, fmt.Sprintf(loginAttemptsKey, name)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read attempt count: %w", err)
	}
	return count >= l.maxAttempts, nil
}

// RecordFailure increments the failure counter. The lockout window
// starts at the first failure and is not extended by later ones.
func (l *LoginLimiter) RecordFailure(ctx context.Context, name string) error {
	key := fmt.Sprintf(loginAttemptsKey, name)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.lockoutWindow).Err(); err != nil {
			return fmt.Errorf("failed to set lockout window: %w", err)
		}
	}
	return nil
}

// Clear wipes the failure counter after a successful login.
func (l *LoginLimiter) Clear(ctx context.Context, name string) error {
	if err := l.client.Del(ctx, fmt.Sprintf(loginAttemptsKey, name)).Err(); err != nil {
		return fmt.Errorf("failed to clear login failures: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (l *LoginLimiter) Close() error {
	return l.client.Close()
}
