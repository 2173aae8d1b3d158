package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"appointly/backend/internal/clock"
	"appointly/backend/internal/locale"
	"appointly/backend/internal/metrics"
	"appointly/backend/internal/service/appointments"
	"appointly/backend/internal/service/notifications"
	"appointly/backend/internal/store/postgres"
	"appointly/backend/internal/tracing"
	transportgrpc "appointly/backend/internal/transport/grpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gRPC booking server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig("server")
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid server config", slog.Any("err", err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("queue_driver", cfg.QueueDriver),
	)

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		return err
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	var rdb *redis.Client
	if cfg.QueueDriver == "redis" {
		rdb, err = newRedisClient(ctx, cfg)
		if err != nil {
			log.Error("redis connection failed", slog.Any("err", err))
			return err
		}
		defer rdb.Close()
	}
	jobs := newEnqueuer(cfg, rdb)
	defer func() {
		if err := jobs.Close(); err != nil {
			log.Warn("job queue close failed", slog.Any("err", err))
		}
	}()

	tp := tracing.Setup(cfg.TraceSampleRatio)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer provider shutdown failed", slog.Any("err", err))
		}
	}()

	m := metrics.New(log)
	go func() {
		if err := m.Serve(ctx, cfg.MetricsPort); err != nil {
			log.Error("metrics server stopped with error", slog.Any("err", err))
		}
	}()

	users := postgres.NewUserRepo(db)
	notificationRepo := postgres.NewNotificationRepo(db)

	bookings := appointments.NewService(appointments.Deps{
		Appointments:  postgres.NewAppointmentRepo(db),
		Users:         users,
		Notifications: notificationRepo,
		Jobs:          jobs,
		Clock:         clock.System{},
		Log:           log,
		Metrics:       m,
		Messages:      locale.New(cfg.NotificationLocale, cfg.NotificationTimezone),
	})
	inbox := notifications.NewService(users, notificationRepo)

	grpcServer := transportgrpc.NewServer(transportgrpc.ServerConfig{
		Log:            log,
		JWTSecret:      cfg.JWTSecret,
		RequestTimeout: cfg.GRPCRequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Metrics:        m,
		TracerProvider: tp,
	}, transportgrpc.NewBookingServer(bookings, inbox, transportgrpc.ServerOptions{
		Clock:        clock.System{},
		FilesBaseURL: cfg.FilesBaseURL,
		Log:          log,
	}))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()

	log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, grpcServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("grpc server stopped with error", slog.Any("err", err))
			return err
		}
	}
	return nil
}

func shutdown(log *slog.Logger, s *grpc.Server, timeout time.Duration) {
	log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-timer.C:
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}
