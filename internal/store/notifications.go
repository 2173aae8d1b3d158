package store

import (
	"context"

	"appointly/backend/internal/domain"
)

type NotificationSink interface {
	Append(ctx context.Context, n domain.Notification) (domain.Notification, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
}
