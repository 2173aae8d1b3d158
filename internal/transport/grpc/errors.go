package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"appointly/backend/internal/service/svcerr"
)

const errorDomain = "appointly"

var kindCodes = map[svcerr.Kind]codes.Code{
	svcerr.KindInvalidProvider:          codes.InvalidArgument,
	svcerr.KindSelfBookingDenied:        codes.InvalidArgument,
	svcerr.KindPastDate:                 codes.InvalidArgument,
	svcerr.KindSlotUnavailable:          codes.FailedPrecondition,
	svcerr.KindCancellationWindowClosed: codes.FailedPrecondition,
	svcerr.KindNotFound:                 codes.NotFound,
	svcerr.KindNotOwner:                 codes.PermissionDenied,
	svcerr.KindNotAProvider:             codes.PermissionDenied,
	svcerr.KindDependencyUnavailable:    codes.Unavailable,
}

// statusError converts a service failure into a gRPC status carrying an
// ErrorInfo detail whose reason is the failure kind.
func statusError(ctx context.Context, log *slog.Logger, err error) error {
	var svcErr *svcerr.Error
	if !errors.As(err, &svcErr) {
		log.ErrorContext(ctx, "request failed", slog.Any("err", err))
		return status.Error(codes.Internal, "internal error")
	}

	code, ok := kindCodes[svcErr.Kind]
	if !ok {
		code = codes.Internal
	}

	if svcErr.Kind == svcerr.KindDependencyUnavailable {
		log.ErrorContext(ctx, "dependency failed", slog.Any("err", err))
	} else {
		log.InfoContext(ctx, "request rejected", slog.String("reason", string(svcErr.Kind)))
	}

	st := status.New(code, svcErr.Message())
	detailed, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(svcErr.Kind),
		Domain: errorDomain,
	})
	if detailErr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// ReasonOf extracts the failure kind carried by a status error, if any.
func ReasonOf(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.Domain == errorDomain {
			return info.Reason
		}
	}
	return ""
}
