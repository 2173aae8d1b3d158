package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/timestamppb"

	appointlyv1 "appointly/backend/internal/api/appointly/v1"
	"appointly/backend/internal/domain"
	"appointly/backend/internal/metrics"
	"appointly/backend/internal/service/appointments"
)

func TestServer_PropagatesTraceIntoSpanAndExemplar(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	m := metrics.New(discardLogger())

	booking := newTestServer(&fakeBookingService{
		bookFn: func(ctx context.Context, in appointments.BookInput) (domain.Appointment, error) {
			return domain.Appointment{
				ID:         uuid.MustParse("00000000-0000-7000-8000-000000000060"),
				UserID:     in.UserID,
				ProviderID: in.ProviderID,
				Date:       domain.HourStart(in.Date),
			}, nil
		},
	}, &fakeNotificationService{})

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(ServerConfig{
		Log:            discardLogger(),
		JWTSecret:      testSecret,
		RequestTimeout: 5 * time.Second,
		Metrics:        m,
		TracerProvider: tp,
	}, booking)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	traceID := trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	ctx := metadata.AppendToOutgoingContext(bearerCtx(t, 1),
		"traceparent", "00-"+traceID.String()+"-00f067aa0ba902b7-01")

	_, err = appointlyv1.NewBookingServiceClient(conn).Book(ctx, &appointlyv1.BookRequest{
		ProviderId: 2,
		Date:       timestamppb.New(time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	// The server span ends on the stats End event, which can trail the reply.
	var span sdktrace.ReadOnlySpan
	for deadline := time.Now().Add(2 * time.Second); span == nil && time.Now().Before(deadline); {
		for _, s := range rec.Ended() {
			if s.Name() == appointlyv1.ServiceName+"/Book" {
				span = s
			}
		}
		if span == nil {
			time.Sleep(10 * time.Millisecond)
		}
	}
	if span == nil {
		t.Fatalf("no server span recorded; got %d spans", len(rec.Ended()))
	}
	if span.SpanContext().TraceID() != traceID {
		t.Fatalf("span trace id = %s, want %s", span.SpanContext().TraceID(), traceID)
	}

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	ex := handledExemplar(families, "Book")
	if ex == nil {
		t.Fatalf("no exemplar on grpc_server_handled_total for Book")
	}
	got := ""
	for _, l := range ex.GetLabel() {
		if l.GetName() == "traceID" {
			got = l.GetValue()
		}
	}
	if got != traceID.String() {
		t.Fatalf("exemplar traceID = %q, want %q", got, traceID.String())
	}
}

func handledExemplar(families []*dto.MetricFamily, method string) *dto.Exemplar {
	for _, f := range families {
		if f.GetName() != "grpc_server_handled_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "grpc_method" && l.GetValue() == method {
					return metric.GetCounter().GetExemplar()
				}
			}
		}
	}
	return nil
}
