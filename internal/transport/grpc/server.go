package grpc

import (
	"log/slog"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	appointlyv1 "appointly/backend/internal/api/appointly/v1"
	"appointly/backend/internal/tracing"
)

type ServerMetrics interface {
	UnaryServerInterceptor() grpc.UnaryServerInterceptor
	RecoveryOption() recovery.Option
	Initialize(srv *grpc.Server)
}

type ServerConfig struct {
	Log            *slog.Logger
	JWTSecret      string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	// Metrics is optional.
	Metrics ServerMetrics
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// NewServer wires the booking service behind an otelgrpc stats handler, which
// starts the span the metric exemplars and call logs pick up, and the
// interceptor chain: metrics, call logging, panic recovery, default deadline,
// auth, rate limit.
func NewServer(cfg ServerConfig, booking appointlyv1.BookingServiceServer) *grpc.Server {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	var chain []grpc.UnaryServerInterceptor
	var recoveryOpts []recovery.Option
	if cfg.Metrics != nil {
		chain = append(chain, cfg.Metrics.UnaryServerInterceptor())
		recoveryOpts = append(recoveryOpts, cfg.Metrics.RecoveryOption())
	}
	chain = append(chain,
		logging.UnaryServerInterceptor(InterceptorLogger(cfg.Log), logging.WithLogOnEvents(logging.FinishCall)),
		recovery.UnaryServerInterceptor(recoveryOpts...),
		DefaultRequestTimeoutInterceptor(cfg.RequestTimeout),
		AuthInterceptor(cfg.JWTSecret),
	)
	if cfg.RateLimitRPS > 0 {
		chain = append(chain, RateLimitInterceptor(NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))
	}

	otelOpts := []otelgrpc.Option{otelgrpc.WithPropagators(tracing.Propagator())}
	if cfg.TracerProvider != nil {
		otelOpts = append(otelOpts, otelgrpc.WithTracerProvider(cfg.TracerProvider))
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler(otelOpts...)),
		grpc.ForceServerCodec(appointlyv1.Codec{}),
		grpc.ChainUnaryInterceptor(chain...),
	)
	appointlyv1.RegisterBookingServiceServer(srv, booking)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(appointlyv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthSrv)

	if cfg.Metrics != nil {
		cfg.Metrics.Initialize(srv)
	}
	return srv
}
