package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"appointly/backend/internal/domain"
)

// AppointmentRepository owns committed appointments. Insert must reject a second
// active appointment for the same provider and date with ErrConflict.
type AppointmentRepository interface {
	FindActive(ctx context.Context, providerID int64, date time.Time) (domain.Appointment, error)
	Insert(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	FindByID(ctx context.Context, id uuid.UUID, withRelations bool) (domain.Appointment, error)
	Update(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	ListActiveForUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Appointment, error)
}
