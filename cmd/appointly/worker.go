package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"appointly/backend/internal/jobs"
	"appointly/backend/internal/locale"
	"appointly/backend/internal/mail"
	"appointly/backend/internal/metrics"
	"appointly/backend/internal/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background job worker",
	Long: `Consumes jobs from the configured queue (redis or kafka) and runs their
handlers. Cancellation mails are sent through SMTP.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig("worker")
	if err != nil {
		return err
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Error("invalid worker config", slog.Any("err", err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting",
		slog.String("queue_driver", cfg.QueueDriver),
		slog.Int("concurrency", cfg.WorkerConcurrency),
		slog.String("worker_id", cfg.WorkerID),
	)

	// Redis backs job deduplication for both queue drivers.
	rdb, err := newRedisClient(ctx, cfg)
	if err != nil {
		log.Error("redis connection failed", slog.Any("err", err))
		return err
	}
	defer rdb.Close()

	var consumer queue.Consumer
	switch cfg.QueueDriver {
	case "kafka":
		consumer = queue.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
	default:
		q := queue.NewRedisConsumer(rdb, cfg.QueueName, cfg.WorkerID)
		moved, err := q.Recover(ctx)
		if err != nil {
			log.Error("queue recovery failed", slog.Any("err", err))
			return err
		}
		if moved > 0 {
			log.Info("requeued unacknowledged jobs", slog.Int("count", moved))
		}
		consumer = q
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Warn("queue consumer close failed", slog.Any("err", err))
		}
	}()

	m := metrics.New(log)
	go func() {
		if err := m.Serve(ctx, cfg.WorkerMetricsPort); err != nil {
			log.Error("metrics server stopped with error", slog.Any("err", err))
		}
	}()

	mailer := mail.NewSMTP(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	worker := jobs.NewWorker(consumer, log, jobs.WorkerConfig{
		Concurrency: cfg.WorkerConcurrency,
		MaxAttempts: cfg.WorkerMaxAttempts,
		Metrics:     m,
	},
		jobs.NewCancellationMail(
			mailer,
			queue.NewRedisDeduper(rdb, cfg.QueueName+":handled:"),
			cfg.WorkerDedupeTTL,
			locale.New(cfg.NotificationLocale, cfg.NotificationTimezone),
			log,
		),
	)

	if err := worker.Run(ctx); err != nil {
		log.Error("worker stopped with error", slog.Any("err", err))
		return err
	}
	log.Info("worker stopped")
	return nil
}
