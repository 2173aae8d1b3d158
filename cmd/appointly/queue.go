package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"appointly/backend/internal/config"
	"appointly/backend/internal/queue"
)

func newRedisClient(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

type enqueueCloser interface {
	queue.Enqueuer
	Close() error
}

// newEnqueuer returns the producer side of the configured job queue. client is
// only used by the redis driver.
func newEnqueuer(cfg config.Config, client redis.UniversalClient) enqueueCloser {
	if cfg.QueueDriver == "kafka" {
		return queue.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	return queue.NewRedis(client, cfg.QueueName)
}
