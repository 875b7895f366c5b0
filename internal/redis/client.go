package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const counterPrefix = "counter:"

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// IncrementAndGet atomically increments the named counter, creating it at 1.
func (c *Client) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	val, err := c.rdb.Incr(ctx, counterPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", key, err)
	}
	return val, nil
}

// seedScript raises KEYS[1] to ARGV[1] in one step and returns the result.
var seedScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local target = tonumber(ARGV[1])
if current < target then
	redis.call("SET", KEYS[1], ARGV[1])
	return target
end
return current
`)

// Seed raises the counter to at least value. Used when moving counters from
// the database into Redis so numbering never restarts. It is safe to run from
// several instances at once.
func (c *Client) Seed(ctx context.Context, key string, value int64) error {
	if err := seedScript.Run(ctx, c.rdb, []string{counterPrefix + key}, value).Err(); err != nil {
		return fmt.Errorf("failed to seed counter %s: %w", key, err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
