package store

import (
	"context"

	"appointly/backend/internal/domain"
)

type UserDirectory interface {
	// FindProvider returns ErrNotFound when the user is missing or is not a provider.
	FindProvider(ctx context.Context, id int64) (domain.User, error)
	FindByID(ctx context.Context, id int64) (domain.User, error)
}
