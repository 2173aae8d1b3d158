package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CancellationWindow is how long before an appointment cancellation stops being allowed.
const CancellationWindow = 2 * time.Hour

type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:appointment"`

	ID         uuid.UUID  `bun:"id,pk,type:uuid"`
	UserID     int64      `bun:"user_id,notnull"`
	ProviderID int64      `bun:"provider_id,notnull"`
	Date       time.Time  `bun:"date,notnull"`
	CanceledAt *time.Time `bun:"canceled_at"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull"`

	User     *User `bun:"rel:belongs-to,join:user_id=id"`
	Provider *User `bun:"rel:belongs-to,join:provider_id=id"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

func (a Appointment) Canceled() bool {
	return a.CanceledAt != nil
}

func (a Appointment) Past(now time.Time) bool {
	return a.Date.Before(now)
}

// CancelDeadline is the last instant at which cancellation is rejected; any
// instant strictly before it is still inside the window.
func (a Appointment) CancelDeadline() time.Time {
	return a.Date.Add(-CancellationWindow)
}

func (a Appointment) Cancelable(now time.Time) bool {
	return !a.Canceled() && a.CancelDeadline().After(now)
}

// HourStart floors t to the start of its hour in UTC.
func HourStart(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}
