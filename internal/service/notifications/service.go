package notifications

import (
	"context"
	"errors"

	"appointly/backend/internal/domain"
	"appointly/backend/internal/service/svcerr"
	"appointly/backend/internal/store"
)

const Limit = 20

type Service struct {
	users         store.UserDirectory
	notifications store.NotificationSink
}

func NewService(users store.UserDirectory, notifications store.NotificationSink) *Service {
	return &Service{users: users, notifications: notifications}
}

// List returns the newest notifications of a provider, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]domain.Notification, error) {
	if _, err := s.users.FindProvider(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, svcerr.New(svcerr.KindNotAProvider)
		}
		return nil, svcerr.Dependency(err)
	}

	rows, err := s.notifications.ListForUser(ctx, userID, Limit)
	if err != nil {
		return nil, svcerr.Dependency(err)
	}
	return rows, nil
}
