package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// ConnectRedis connects to Redis database
func ConnectRedis(redisURI string) error {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return err
	}

	// Every request touches Redis at least once (rate limit), and the values
	// are tiny (flash messages, tickets, counters), so a wider pool with
	// tight read/write deadlines fits better than long timeouts.
	opt.PoolSize = 20                      // Rate limiter runs on every request
	opt.MinIdleConns = 2                   // Minimum idle connections
	opt.MaxRetries = 3                     // Retry failed commands up to 3 times
	opt.DialTimeout = 5 * time.Second      // Timeout for establishing connection
	opt.ReadTimeout = 2 * time.Second      // Small values; slow reads mean trouble
	opt.WriteTimeout = 2 * time.Second     // Timeout for write operations
	opt.PoolTimeout = 3 * time.Second      // Timeout for getting connection from pool
	opt.ConnMaxIdleTime = 10 * time.Minute // Keep idle conns through quiet periods

	RedisClient = redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return err
	}

	log.Println("✅ Connected to Redis")
	return nil
}

// DisconnectRedis closes the Redis connection
func DisconnectRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}
