package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9" // Redis client for pub/sub, rate limiting and caching
)

// NewRedisClient builds a Redis client from REDIS_ADDR, REDIS_PASSWORD
// and REDIS_DB.  Redis is optional infrastructure here: when the ping
// fails the function logs a warning and returns nil, and callers fall
// back to in-process equivalents.
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis: unavailable at %s (%v); realtime fan-out degrades to in-process", addr, err)
		_ = client.Close()
		return nil
	}
	log.Printf("redis: connected to %s", addr)
	return client
}
