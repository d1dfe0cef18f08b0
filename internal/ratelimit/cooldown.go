package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown grants an actor at most one action per window
type Cooldown interface {
	// Acquire returns true and starts a new window when the actor is not cooling down
	Acquire(ctx context.Context, actorID string, window time.Duration) (bool, error)
}

// MemoryCooldown keeps cooldowns in process memory
type MemoryCooldown struct {
	mu       sync.Mutex
	lastUsed map[string]time.Time
	now      func() time.Time
}

// NewMemoryCooldown creates an in-memory cooldown
func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{
		lastUsed: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Acquire implements Cooldown
func (c *MemoryCooldown) Acquire(_ context.Context, actorID string, window time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.lastUsed[actorID]; ok && now.Sub(last) < window {
		return false, nil
	}
	c.lastUsed[actorID] = now

	// Drop expired entries so the map does not grow with every admin seen
	for id, last := range c.lastUsed {
		if now.Sub(last) >= window {
			delete(c.lastUsed, id)
		}
	}
	return true, nil
}

// RedisCooldown shares cooldowns between bot replicas
type RedisCooldown struct {
	client *redis.Client
	prefix string
}

// NewRedisCooldown connects to redisURL and verifies the connection
func NewRedisCooldown(ctx context.Context, redisURL string) (*RedisCooldown, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisCooldownWithClient(client), nil
}

// NewRedisCooldownWithClient wraps an existing client
func NewRedisCooldownWithClient(client *redis.Client) *RedisCooldown {
	return &RedisCooldown{client: client, prefix: "summarybot:admin_cooldown:"}
}

// Acquire implements Cooldown
func (c *RedisCooldown) Acquire(ctx context.Context, actorID string, window time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.prefix+actorID, 1, window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set cooldown: %w", err)
	}
	return ok, nil
}

// Close closes the redis client
func (c *RedisCooldown) Close() error {
	return c.client.Close()
}
