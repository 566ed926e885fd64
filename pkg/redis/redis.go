package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ICache is the shared speech cache. Every operation degrades to a no-op
// when Redis is unreachable: Get misses, Set drops silently, callers never
// see an error. Caching is an optimization, not a correctness dependency.
type ICache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Exists(ctx context.Context, key string) bool
}

type cacheClient struct {
	client *redis.Client
}

func New() ICache {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		logrus.Warn("REDIS_ADDRESS not configured, speech cache disabled")
		return &cacheClient{}
	}

	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis, speech cache disabled: %v", err))
		return &cacheClient{}
	}

	logrus.Info("Successfully connected to Redis")
	return &cacheClient{client: client}
}

// NewWithClient wires an existing client. Used by tests.
func NewWithClient(client *redis.Client) ICache {
	return &cacheClient{client: client}
}

func (c *cacheClient) Get(ctx context.Context, key string) (string, bool) {
	if c.client == nil {
		return "", false
	}

	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Redis get error for key %s: %v", key, err))
		return "", false
	}

	var value string
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		logrus.Error(fmt.Sprintf("Failed to decode cached value for key %s: %v", key, err))
		return "", false
	}

	return value, true
}

func (c *cacheClient) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		logrus.Error(fmt.Sprintf("Failed to encode value for key %s: %v", key, err))
		return
	}

	if err := c.client.SetEx(ctx, key, string(raw), ttl).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Redis set error for key %s: %v", key, err))
	}
}

func (c *cacheClient) Delete(ctx context.Context, key string) {
	if c.client == nil {
		return
	}

	if _, err := c.client.Del(ctx, key).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Redis delete error for key %s: %v", key, err))
	}
}

func (c *cacheClient) Exists(ctx context.Context, key string) bool {
	if c.client == nil {
		return false
	}

	count, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Redis exists error for key %s: %v", key, err))
		return false
	}

	return count > 0
}
