package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"appointly/backend/internal/queue"
)

// ErrPermanent marks a failure that redelivery cannot fix, such as an
// undecodable payload.
var ErrPermanent = errors.New("permanent job failure")

// Handler processes one kind of job. Returning an error hands the job back to
// the queue for redelivery.
type Handler interface {
	Key() string
	Handle(ctx context.Context, job queue.Job) error
}

type JobMetrics interface {
	JobProcessed(key, outcome string)
}

type nopJobMetrics struct{}

func (nopJobMetrics) JobProcessed(string, string) {}

type Worker struct {
	consumer    queue.Consumer
	metrics     JobMetrics
	handlers    map[string]Handler
	log         *slog.Logger
	concurrency int
	maxAttempts int
	backoff     time.Duration
}

type WorkerConfig struct {
	Concurrency int
	// MaxAttempts caps redeliveries of a failing job; zero means unlimited.
	MaxAttempts int
	// Backoff is slept after a receive error before polling again.
	Backoff time.Duration
	Metrics JobMetrics
}

func NewWorker(consumer queue.Consumer, log *slog.Logger, cfg WorkerConfig, handlers ...Handler) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopJobMetrics{}
	}

	byKey := make(map[string]Handler, len(handlers))
	for _, h := range handlers {
		byKey[h.Key()] = h
	}

	return &Worker{
		consumer:    consumer,
		metrics:     cfg.Metrics,
		handlers:    byKey,
		log:         log.With(slog.String("component", "worker")),
		concurrency: cfg.Concurrency,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
	}
}

// Run starts the configured number of receive loops and blocks until ctx is
// done and every in-flight job has been acknowledged or handed back.
func (w *Worker) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w.loop(ctx, w.log.With(slog.Int("loop", n)))
		}(i)
	}
	wg.Wait()
	return nil
}

func (w *Worker) loop(ctx context.Context, log *slog.Logger) {
	for {
		d, err := w.consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("receive failed", slog.Any("err", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.backoff):
			}
			continue
		}
		w.process(ctx, log, d)
	}
}

func (w *Worker) process(ctx context.Context, log *slog.Logger, d queue.Delivery) {
	// Settle the delivery even when shutdown cancels ctx mid-job.
	settleCtx := context.WithoutCancel(ctx)

	log = log.With(slog.String("job", d.Job.Key), slog.String("job_id", d.Job.ID.String()), slog.Int("attempts", d.Job.Attempts))

	h, ok := w.handlers[d.Job.Key]
	if !ok {
		log.Warn("no handler for job, dropping")
		w.metrics.JobProcessed(d.Job.Key, "dropped")
		if err := d.Ack(settleCtx); err != nil {
			log.Error("ack failed", slog.Any("err", err))
		}
		return
	}

	err := h.Handle(ctx, d.Job)
	if err == nil {
		w.metrics.JobProcessed(d.Job.Key, "ok")
		if err := d.Ack(settleCtx); err != nil {
			log.Error("ack failed", slog.Any("err", err))
		}
		return
	}

	if errors.Is(err, ErrPermanent) || (w.maxAttempts > 0 && d.Job.Attempts+1 >= w.maxAttempts) {
		log.Error("job failed permanently", slog.Any("err", err))
		w.metrics.JobProcessed(d.Job.Key, "failed")
		if err := d.Ack(settleCtx); err != nil {
			log.Error("ack failed", slog.Any("err", err))
		}
		return
	}

	log.Warn("job failed, requeueing", slog.Any("err", err))
	w.metrics.JobProcessed(d.Job.Key, "retry")
	if err := d.Nack(settleCtx); err != nil {
		log.Error("nack failed", slog.Any("err", err))
	}
}
