package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultBlockTimeout = 5 * time.Second

// Redis is a list-backed queue. Producers LPUSH onto <name>:pending; each
// consumer atomically moves the tail into its own <name>:processing:<consumer>
// list and removes it on Ack.
type Redis struct {
	client       redis.UniversalClient
	name         string
	consumer     string
	blockTimeout time.Duration
}

// NewRedis returns a producer-only queue handle.
func NewRedis(client redis.UniversalClient, name string) *Redis {
	return &Redis{client: client, name: name, blockTimeout: defaultBlockTimeout}
}

// NewRedisConsumer returns a queue handle that receives as consumer. The id must
// be stable across restarts of the same worker so Recover finds its leftovers.
func NewRedisConsumer(client redis.UniversalClient, name, consumer string) *Redis {
	q := NewRedis(client, name)
	q.consumer = consumer
	return q
}

func (q *Redis) pendingKey() string { return q.name + ":pending" }

func (q *Redis) processingKey() string {
	if q.consumer == "" {
		return q.name + ":processing"
	}
	return q.name + ":processing:" + q.consumer
}

func (q *Redis) Enqueue(ctx context.Context, key string, payload any) error {
	const op = "queue.redis.Enqueue"

	job, err := NewJob(key, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return q.push(ctx, job)
}

func (q *Redis) push(ctx context.Context, job Job) error {
	const op = "queue.redis.push"

	data, err := encodeJob(job)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := q.client.LPush(ctx, q.pendingKey(), data).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (q *Redis) Receive(ctx context.Context) (Delivery, error) {
	const op = "queue.redis.Receive"

	for {
		if err := ctx.Err(); err != nil {
			return Delivery{}, err
		}

		raw, err := q.client.BLMove(ctx, q.pendingKey(), q.processingKey(), "RIGHT", "LEFT", q.blockTimeout).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Delivery{}, ctxErr
			}
			return Delivery{}, fmt.Errorf("%s: %w", op, err)
		}

		job, err := decodeJob([]byte(raw))
		if err != nil {
			// Poison message: drop it from processing so it is not recovered forever.
			_ = q.client.LRem(ctx, q.processingKey(), 1, raw).Err()
			return Delivery{}, fmt.Errorf("%s: %w", op, err)
		}

		return Delivery{
			Job: job,
			Ack: func(ctx context.Context) error {
				return q.client.LRem(ctx, q.processingKey(), 1, raw).Err()
			},
			Nack: func(ctx context.Context) error {
				return q.requeue(ctx, raw, job)
			},
		}, nil
	}
}

func (q *Redis) requeue(ctx context.Context, raw string, job Job) error {
	job.Attempts++
	data, err := encodeJob(job)
	if err != nil {
		return err
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processingKey(), 1, raw)
		pipe.LPush(ctx, q.pendingKey(), data)
		return nil
	})
	return err
}

// Recover moves jobs this consumer left unacknowledged in a previous run back to
// pending. It must run before Receive; other consumers' lists are not touched.
func (q *Redis) Recover(ctx context.Context) (int, error) {
	const op = "queue.redis.Recover"

	moved := 0
	for {
		_, err := q.client.LMove(ctx, q.processingKey(), q.pendingKey(), "RIGHT", "RIGHT").Result()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("%s: %w", op, err)
		}
		moved++
	}
}

func (q *Redis) Close() error {
	return nil
}

// RedisDeduper records handled job identities so redelivered jobs can be skipped.
type RedisDeduper struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisDeduper(client redis.UniversalClient, prefix string) *RedisDeduper {
	return &RedisDeduper{client: client, prefix: prefix}
}

// Claim returns false when id was already claimed within ttl.
func (d *RedisDeduper) Claim(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+id, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("queue.redis.Claim: %w", err)
	}
	return ok, nil
}

func (d *RedisDeduper) Release(ctx context.Context, id string) error {
	if err := d.client.Del(ctx, d.prefix+id).Err(); err != nil {
		return fmt.Errorf("queue.redis.Release: %w", err)
	}
	return nil
}
