package appointments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"appointly/backend/internal/clock"
	"appointly/backend/internal/domain"
	"appointly/backend/internal/jobs"
	"appointly/backend/internal/locale"
	"appointly/backend/internal/queue"
	"appointly/backend/internal/service/svcerr"
	"appointly/backend/internal/store"
)

const PageSize = 20

const (
	EffectBookingNotification     = "booking_notification"
	EffectCancellationMailEnqueue = "cancellation_mail_enqueue"
)

// Metrics receives best-effort side-effect failures.
type Metrics interface {
	SideEffectFailed(effect string)
}

type nopMetrics struct{}

func (nopMetrics) SideEffectFailed(string) {}

type Deps struct {
	Appointments  store.AppointmentRepository
	Users         store.UserDirectory
	Notifications store.NotificationSink
	Jobs          queue.Enqueuer
	Clock         clock.Clock
	Log           *slog.Logger
	Metrics       Metrics
	Messages      *locale.Messages
}

type Service struct {
	appointments  store.AppointmentRepository
	users         store.UserDirectory
	notifications store.NotificationSink
	jobs          queue.Enqueuer
	clock         clock.Clock
	log           *slog.Logger
	metrics       Metrics
	messages      *locale.Messages
}

func NewService(d Deps) *Service {
	s := &Service{
		appointments:  d.Appointments,
		users:         d.Users,
		notifications: d.Notifications,
		jobs:          d.Jobs,
		clock:         d.Clock,
		log:           d.Log,
		metrics:       d.Metrics,
		messages:      d.Messages,
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.messages == nil {
		s.messages = locale.Default()
	}
	return s
}

type BookInput struct {
	UserID     int64
	ProviderID int64
	Date       time.Time
}

func (s *Service) Book(ctx context.Context, in BookInput) (domain.Appointment, error) {
	log := s.log.With(slog.String("op", "Book"), slog.Int64("user_id", in.UserID), slog.Int64("provider_id", in.ProviderID))

	if _, err := s.users.FindProvider(ctx, in.ProviderID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, svcerr.New(svcerr.KindInvalidProvider)
		}
		return domain.Appointment{}, svcerr.Dependency(err)
	}

	if in.ProviderID == in.UserID {
		return domain.Appointment{}, svcerr.New(svcerr.KindSelfBookingDenied)
	}

	now := s.clock.Now()
	hourStart := domain.HourStart(in.Date)
	if !hourStart.After(now) {
		return domain.Appointment{}, svcerr.New(svcerr.KindPastDate)
	}

	_, err := s.appointments.FindActive(ctx, in.ProviderID, hourStart)
	switch {
	case err == nil:
		return domain.Appointment{}, svcerr.New(svcerr.KindSlotUnavailable)
	case !errors.Is(err, store.ErrNotFound):
		return domain.Appointment{}, svcerr.Dependency(err)
	}

	appt, err := s.appointments.Insert(ctx, domain.Appointment{
		UserID:     in.UserID,
		ProviderID: in.ProviderID,
		Date:       hourStart,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.Appointment{}, svcerr.New(svcerr.KindSlotUnavailable)
		}
		return domain.Appointment{}, svcerr.Dependency(err)
	}

	if err := s.notifyProvider(ctx, appt); err != nil {
		s.metrics.SideEffectFailed(EffectBookingNotification)
		log.WarnContext(ctx, "booking notification failed", slog.String("appointment_id", appt.ID.String()), slog.Any("err", err))
	}

	return appt, nil
}

func (s *Service) notifyProvider(ctx context.Context, appt domain.Appointment) error {
	user, err := s.users.FindByID(ctx, appt.UserID)
	if err != nil {
		return err
	}
	_, err = s.notifications.Append(ctx, domain.Notification{
		Content: s.messages.NewBooking(user.Name, appt.Date),
		UserID:  appt.ProviderID,
	})
	return err
}

func (s *Service) Cancel(ctx context.Context, userID int64, appointmentID uuid.UUID) (domain.Appointment, error) {
	log := s.log.With(slog.String("op", "Cancel"), slog.Int64("user_id", userID), slog.String("appointment_id", appointmentID.String()))

	appt, err := s.appointments.FindByID(ctx, appointmentID, true)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, svcerr.New(svcerr.KindNotFound)
		}
		return domain.Appointment{}, svcerr.Dependency(err)
	}

	if appt.UserID != userID {
		return domain.Appointment{}, svcerr.New(svcerr.KindNotOwner)
	}

	now := s.clock.Now()
	if !appt.CancelDeadline().After(now) {
		return domain.Appointment{}, svcerr.New(svcerr.KindCancellationWindowClosed)
	}

	if appt.Canceled() {
		return appt, nil
	}

	canceledAt := now.UTC()
	appt.CanceledAt = &canceledAt
	updated, err := s.appointments.Update(ctx, appt)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Appointment{}, svcerr.New(svcerr.KindNotFound)
		}
		return domain.Appointment{}, svcerr.Dependency(err)
	}

	if err := s.jobs.Enqueue(ctx, jobs.CancellationMailKey, jobs.NewCancellationPayload(updated)); err != nil {
		s.metrics.SideEffectFailed(EffectCancellationMailEnqueue)
		log.WarnContext(ctx, "cancellation mail enqueue failed", slog.Any("err", err))
	}

	return updated, nil
}

func (s *Service) ListForUser(ctx context.Context, userID int64, page int) ([]domain.Appointment, error) {
	if page < 1 {
		page = 1
	}

	rows, err := s.appointments.ListActiveForUser(ctx, userID, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, svcerr.Dependency(err)
	}
	return rows, nil
}
