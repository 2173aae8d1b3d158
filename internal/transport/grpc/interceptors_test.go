package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	appointlyv1 "appointly/backend/internal/api/appointly/v1"
	"appointly/backend/internal/auth"
)

const testSecret = "test-secret"

func okHandler(ctx context.Context, req any) (any, error) {
	return ctx, nil
}

func TestAuthInterceptor_SetsUserID(t *testing.T) {
	tok, err := auth.MakeToken(42, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("MakeToken error: %v", err)
	}
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+tok))

	out, err := AuthInterceptor(testSecret)(ctx, nil, &grpc.UnaryServerInfo{FullMethod: appointlyv1.BookFullMethod}, okHandler)
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
	id, ok := auth.UserIDFrom(out.(context.Context))
	if !ok || id != 42 {
		t.Fatalf("user id = %d (%v), want 42", id, ok)
	}
}

func TestAuthInterceptor_Rejects(t *testing.T) {
	cases := map[string]context.Context{
		"no metadata": context.Background(),
		"no token":    metadata.NewIncomingContext(context.Background(), metadata.Pairs("x", "y")),
		"bad token":   metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer nope")),
	}
	for name, ctx := range cases {
		_, err := AuthInterceptor(testSecret)(ctx, nil, &grpc.UnaryServerInfo{FullMethod: appointlyv1.BookFullMethod}, okHandler)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("%s: code = %s, want %s", name, status.Code(err), codes.Unauthenticated)
		}
	}
}

func TestAuthInterceptor_EmptySecretRejectsForgedToken(t *testing.T) {
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{UserID: 42}).SignedString([]byte(""))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+forged))

	_, err = AuthInterceptor("")(ctx, nil, &grpc.UnaryServerInfo{FullMethod: appointlyv1.CancelFullMethod}, okHandler)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.Unauthenticated)
	}
}

func TestAuthInterceptor_HealthIsOpen(t *testing.T) {
	_, err := AuthInterceptor(testSecret)(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, okHandler)
	if err != nil {
		t.Fatalf("health check must not require auth: %v", err)
	}
}

func TestRateLimitInterceptor_LimitsBookPerUser(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	interceptor := RateLimitInterceptor(rl)
	book := &grpc.UnaryServerInfo{FullMethod: appointlyv1.BookFullMethod}

	alice := auth.WithUserID(context.Background(), 1)
	for i := 0; i < 2; i++ {
		if _, err := interceptor(alice, nil, book, okHandler); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if _, err := interceptor(alice, nil, book, okHandler); status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.ResourceExhausted)
	}

	bob := auth.WithUserID(context.Background(), 2)
	if _, err := interceptor(bob, nil, book, okHandler); err != nil {
		t.Fatalf("other user must have own bucket: %v", err)
	}

	list := &grpc.UnaryServerInfo{FullMethod: appointlyv1.ListAppointmentsFullMethod}
	if _, err := interceptor(alice, nil, list, okHandler); err != nil {
		t.Fatalf("unlimited method was limited: %v", err)
	}
}

func TestRateLimiter_SweepsIdleCallers(t *testing.T) {
	now := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(5 * time.Minute)
	rl.Allow("b")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["a"]; ok {
		t.Fatalf("idle caller was not swept")
	}
	if _, ok := rl.clients["b"]; !ok {
		t.Fatalf("active caller missing")
	}
}

func TestCallerKey_FallsBackToPeer(t *testing.T) {
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 5000}})
	if got := callerKey(ctx); got != "peer:10.0.0.1:5000" {
		t.Fatalf("callerKey = %q", got)
	}
	if got := callerKey(auth.WithUserID(ctx, 3)); got != "user:3" {
		t.Fatalf("callerKey = %q", got)
	}
}

func TestDefaultRequestTimeoutInterceptor(t *testing.T) {
	interceptor := DefaultRequestTimeoutInterceptor(time.Second)

	out, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, okHandler)
	if err != nil {
		t.Fatalf("interceptor error: %v", err)
	}
	if _, ok := out.(context.Context).Deadline(); !ok {
		t.Fatalf("expected deadline to be set")
	}

	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := parent.Deadline()
	out, _ = interceptor(parent, nil, &grpc.UnaryServerInfo{}, okHandler)
	got, _ := out.(context.Context).Deadline()
	if !got.Equal(want) {
		t.Fatalf("existing deadline replaced: %v != %v", got, want)
	}
}
