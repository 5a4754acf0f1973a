package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/fixgearlabs/fixgear-cart/config"
	"github.com/fixgearlabs/fixgear-cart/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		// Leave the client unset so callers degrade instead of hitting a
		// dead connection on every request.
		client.Close()
		client = nil
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// RevokeToken marks a session token as revoked until its natural expiry.
// A revoked token must no longer resolve to an identity.
func RevokeToken(ctx context.Context, token string, expiry time.Duration) error {
	logger.Debug("Revoking session token", map[string]interface{}{
		"expiry": expiry.String(),
	})

	key := fmt.Sprintf("revoked:%s", token)
	err := client.Set(ctx, key, "revoked", expiry).Err()
	if err != nil {
		logger.Error("Failed to revoke session token", err, nil)
		return err
	}

	logger.Debug("Session token revoked", nil)
	return nil
}

// IsTokenRevoked checks whether a session token has been revoked
func IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("revoked:%s", token)
	val, err := client.Get(ctx, key).Result()

	if err == redis.Nil {
		// Key does not exist - token is still valid
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token revocation", err, nil)
		return false, err
	}

	return val == "revoked", nil
}
