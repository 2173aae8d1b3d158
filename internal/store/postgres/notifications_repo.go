package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"appointly/backend/internal/domain"
)

type NotificationRepo struct {
	db *bun.DB
}

func NewNotificationRepo(db *bun.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Append(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	m := domain.Notification{
		ID:        n.ID,
		Content:   n.Content,
		UserID:    n.UserID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Notification{}, err
	}
	return m, nil
}

func (r *NotificationRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	var rows []domain.Notification
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
