package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/makeups-api/pkg/config"
)

// NewRedis returns a configured Redis client, or nil when the request list
// cache is disabled.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// RequestListKey builds the cache key for one (course, status) listing.
func RequestListKey(courseCode, status string) string {
	return fmt.Sprintf("makeups:requests:%s:%s", courseCode, status)
}

// RequestListPattern matches every cached listing for a course.
func RequestListPattern(courseCode string) string {
	return fmt.Sprintf("makeups:requests:%s:*", courseCode)
}
