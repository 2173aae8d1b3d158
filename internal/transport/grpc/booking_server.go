package grpc

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	appointlyv1 "appointly/backend/internal/api/appointly/v1"
	"appointly/backend/internal/auth"
	"appointly/backend/internal/clock"
	"appointly/backend/internal/domain"
	"appointly/backend/internal/service/appointments"
)

type BookingServer struct {
	appointlyv1.UnimplementedBookingServiceServer

	bookings      bookingService
	notifications notificationService
	clock         clock.Clock
	filesBaseURL  string
	log           *slog.Logger
}

type bookingService interface {
	Book(ctx context.Context, in appointments.BookInput) (domain.Appointment, error)
	Cancel(ctx context.Context, userID int64, appointmentID uuid.UUID) (domain.Appointment, error)
	ListForUser(ctx context.Context, userID int64, page int) ([]domain.Appointment, error)
}

type notificationService interface {
	List(ctx context.Context, userID int64) ([]domain.Notification, error)
}

type ServerOptions struct {
	Clock        clock.Clock
	FilesBaseURL string
	Log          *slog.Logger
}

func NewBookingServer(bookings bookingService, notifications notificationService, opts ServerOptions) *BookingServer {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	return &BookingServer{
		bookings:      bookings,
		notifications: notifications,
		clock:         opts.Clock,
		filesBaseURL:  strings.TrimRight(opts.FilesBaseURL, "/"),
		log:           opts.Log.With(slog.String("component", "grpc.booking")),
	}
}

func (s *BookingServer) Book(ctx context.Context, req *appointlyv1.BookRequest) (*appointlyv1.BookResponse, error) {
	log := s.log.With(slog.String("rpc", "Book"))

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.ProviderId <= 0 {
		log.Warn("invalid request", slog.String("reason", "missing_provider"), slog.Int64("user_id", userID))
		return nil, status.Error(codes.InvalidArgument, "provider_id is required")
	}
	if req.Date == nil {
		log.Warn("invalid request", slog.String("reason", "missing_date"), slog.Int64("user_id", userID))
		return nil, status.Error(codes.InvalidArgument, "date is required")
	}
	if err := req.Date.CheckValid(); err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_date"), slog.Int64("user_id", userID))
		return nil, status.Error(codes.InvalidArgument, "date is invalid")
	}

	appt, err := s.bookings.Book(ctx, appointments.BookInput{
		UserID:     userID,
		ProviderID: req.ProviderId,
		Date:       req.Date.AsTime(),
	})
	if err != nil {
		return nil, statusError(ctx, log.With(slog.Int64("user_id", userID), slog.Int64("provider_id", req.ProviderId)), err)
	}

	log.Info(
		"appointment booked",
		slog.String("appointment_id", appt.ID.String()),
		slog.Int64("user_id", appt.UserID),
		slog.Int64("provider_id", appt.ProviderID),
		slog.Time("date", appt.Date),
	)

	return &appointlyv1.BookResponse{Appointment: s.toProtoAppointment(appt)}, nil
}

func (s *BookingServer) Cancel(ctx context.Context, req *appointlyv1.CancelRequest) (*appointlyv1.CancelResponse, error) {
	log := s.log.With(slog.String("rpc", "Cancel"))

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.AppointmentId)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"), slog.Int64("user_id", userID))
		return nil, status.Error(codes.InvalidArgument, "appointment_id must be a UUID")
	}

	appt, err := s.bookings.Cancel(ctx, userID, id)
	if err != nil {
		return nil, statusError(ctx, log.With(slog.Int64("user_id", userID), slog.String("appointment_id", id.String())), err)
	}

	log.Info("appointment canceled", slog.String("appointment_id", id.String()), slog.Int64("user_id", userID))
	return &appointlyv1.CancelResponse{Appointment: s.toProtoAppointment(appt)}, nil
}

func (s *BookingServer) ListAppointments(ctx context.Context, req *appointlyv1.ListAppointmentsRequest) (*appointlyv1.ListAppointmentsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListAppointments"))

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	page := 1
	if req != nil && req.Page > 0 {
		page = int(req.Page)
	}

	appts, err := s.bookings.ListForUser(ctx, userID, page)
	if err != nil {
		return nil, statusError(ctx, log.With(slog.Int64("user_id", userID)), err)
	}

	out := make([]*appointlyv1.Appointment, 0, len(appts))
	for _, a := range appts {
		out = append(out, s.toProtoAppointment(a))
	}

	log.Debug("appointments listed", slog.Int64("user_id", userID), slog.Int("page", page), slog.Int("count", len(out)))

	return &appointlyv1.ListAppointmentsResponse{Appointments: out}, nil
}

func (s *BookingServer) ListNotifications(ctx context.Context, req *appointlyv1.ListNotificationsRequest) (*appointlyv1.ListNotificationsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListNotifications"))

	userID, ok := auth.UserIDFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}

	notes, err := s.notifications.List(ctx, userID)
	if err != nil {
		return nil, statusError(ctx, log.With(slog.Int64("user_id", userID)), err)
	}

	out := make([]*appointlyv1.Notification, 0, len(notes))
	for _, n := range notes {
		out = append(out, &appointlyv1.Notification{
			Id:        n.ID.String(),
			Content:   n.Content,
			Read:      n.Read,
			CreatedAt: timestamppb.New(n.CreatedAt),
			UserId:    n.UserID,
		})
	}

	log.Debug("notifications listed", slog.Int64("user_id", userID), slog.Int("count", len(out)))

	return &appointlyv1.ListNotificationsResponse{Notifications: out}, nil
}

func (s *BookingServer) toProtoAppointment(a domain.Appointment) *appointlyv1.Appointment {
	now := s.clock.Now()
	out := &appointlyv1.Appointment{
		Id:         a.ID.String(),
		UserId:     a.UserID,
		ProviderId: a.ProviderID,
		Date:       timestamppb.New(a.Date),
		Past:       a.Past(now),
		Cancelable: a.Cancelable(now),
		CreatedAt:  timestamppb.New(a.CreatedAt),
		UpdatedAt:  timestamppb.New(a.UpdatedAt),
	}
	if a.CanceledAt != nil {
		out.CanceledAt = timestamppb.New(*a.CanceledAt)
	}
	if a.Provider != nil {
		p := &appointlyv1.Provider{Id: a.Provider.ID, Name: a.Provider.Name}
		if a.Provider.Avatar != nil {
			p.AvatarUrl = a.Provider.Avatar.URL(s.filesBaseURL)
		}
		out.Provider = p
	}
	return out
}
