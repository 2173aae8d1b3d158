// Package metrics owns the Prometheus registry shared by the gRPC server and
// the booking services, and serves it over HTTP.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Metrics struct {
	log           *slog.Logger
	reg           *prometheus.Registry
	serverMetrics *grpcprom.ServerMetrics
	panics        prometheus.Counter
	sideEffects   *prometheus.CounterVec
	jobs          *prometheus.CounterVec
}

func New(log *slog.Logger) *Metrics {
	srvMetrics := grpcprom.NewServerMetrics(
		grpcprom.WithServerHandlingTimeHistogram(
			grpcprom.WithHistogramBuckets([]float64{0.001, 0.01, 0.1, 0.3, 0.6, 1, 3, 6, 9, 20, 30, 60}),
		),
	)
	reg := prometheus.NewRegistry()
	reg.MustRegister(srvMetrics)

	return &Metrics{
		log:           log.With(slog.String("component", "metrics")),
		reg:           reg,
		serverMetrics: srvMetrics,
		panics: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "grpc_req_panics_recovered_total",
			Help: "Total number of gRPC requests recovered from internal panic.",
		}),
		sideEffects: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "appointly_side_effect_failures_total",
			Help: "Best-effort side effects that failed after the primary change was committed.",
		}, []string{"effect"}),
		jobs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "appointly_jobs_processed_total",
			Help: "Background jobs processed by the worker, by job key and outcome.",
		}, []string{"job", "outcome"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

func (m *Metrics) SideEffectFailed(effect string) {
	m.sideEffects.WithLabelValues(effect).Inc()
}

func (m *Metrics) JobProcessed(key, outcome string) {
	m.jobs.WithLabelValues(key, outcome).Inc()
}

// UnaryServerInterceptor records per-RPC metrics with a trace exemplar when the
// request carries a sampled span.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return m.serverMetrics.UnaryServerInterceptor(grpcprom.WithExemplarFromContext(exemplarFromContext))
}

func exemplarFromContext(ctx context.Context) prometheus.Labels {
	if span := trace.SpanContextFromContext(ctx); span.IsSampled() {
		return prometheus.Labels{"traceID": span.TraceID().String()}
	}
	return nil
}

func (m *Metrics) RecoveryOption() recovery.Option {
	return recovery.WithRecoveryHandler(func(p any) error {
		m.panics.Inc()
		m.log.Error("recovered from panic", slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
		return status.Error(codes.Internal, "internal error")
	})
}

func (m *Metrics) Initialize(srv *grpc.Server) {
	m.serverMetrics.InitializeMetrics(srv)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{
		// Opt into OpenMetrics e.g. to support exemplars.
		EnableOpenMetrics: true,
	})
}

// Serve exposes /metrics on port until ctx is done.
func (m *Metrics) Serve(ctx context.Context, port int) error {
	const op = "metrics.Serve"

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	m.log.Info("exposing Prometheus metrics", slog.Int("port", port))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
}
