// Package queue carries named background jobs between the booking services and
// the worker. Delivery is at-least-once: a job stays owned by the backend until
// its Delivery is acknowledged, so handlers must be idempotent.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, key string, payload any) error
}

type Consumer interface {
	// Receive blocks until a job is available or ctx is done.
	Receive(ctx context.Context) (Delivery, error)
	Close() error
}

type Job struct {
	ID         uuid.UUID       `json:"id"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

func (j Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Key, err)
	}
	return nil
}

// Delivery is one received job. Exactly one of Ack or Nack should be called;
// Nack hands the job back to the backend for another attempt.
type Delivery struct {
	Job  Job
	Ack  func(ctx context.Context) error
	Nack func(ctx context.Context) error
}

func NewJob(key string, payload any) (Job, error) {
	if key == "" {
		return Job{}, errors.New("job key is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("encode %s payload: %w", key, err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:         id,
		Key:        key,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

func encodeJob(job Job) ([]byte, error) {
	return json.Marshal(job)
}

func decodeJob(data []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
