package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisClients separates the blocking-pop queue traffic and pub/sub
// subscriptions from plain cache reads.
type RedisClients struct {
	Cache  *redis.Client
	Queue  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(ctx context.Context, redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	clients := &RedisClients{}
	for _, c := range []struct {
		name string
		dst  **redis.Client
	}{
		{"cache", &clients.Cache},
		{"queue", &clients.Queue},
		{"pubsub", &clients.PubSub},
	} {
		o := *opt
		client := redis.NewClient(&o)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			clients.Close()
			return nil, fmt.Errorf("failed to ping Redis (%s): %w", c.name, err)
		}
		*c.dst = client
	}

	return clients, nil
}

func (r *RedisClients) Close() {
	for _, c := range []*redis.Client{r.Cache, r.Queue, r.PubSub} {
		if c != nil {
			c.Close()
		}
	}
}
