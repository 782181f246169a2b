package cache

import (
	"context"
	"fmt"
	"time"

	"musee/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the shared Redis connection. It stays nil when Redis is
// not configured or unreachable; callers treat that as "no cache".
var RedisClient *redis.Client

// ConnectRedis initializes the Redis connection and verifies it with a ping.
func ConnectRedis(cfg *config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	RedisClient = client
	return nil
}

// CloseRedis closes the Redis connection if one was established.
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}
