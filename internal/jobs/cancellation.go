package jobs

import (
	"time"

	"github.com/google/uuid"

	"appointly/backend/internal/domain"
)

const CancellationMailKey = "CancellationMail"

type CancellationPayload struct {
	Appointment CancellationAppointment `json:"appointment"`
}

type CancellationAppointment struct {
	ID         uuid.UUID   `json:"id"`
	Date       time.Time   `json:"date"`
	CanceledAt *time.Time  `json:"canceled_at"`
	Provider   MailContact `json:"provider"`
	User       MailContact `json:"user"`
}

type MailContact struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// NewCancellationPayload snapshots what the mail needs so the worker never
// re-reads the appointment. Relations that were not loaded leave only the ids.
func NewCancellationPayload(appt domain.Appointment) CancellationPayload {
	p := CancellationPayload{
		Appointment: CancellationAppointment{
			ID:         appt.ID,
			Date:       appt.Date.UTC(),
			CanceledAt: appt.CanceledAt,
			Provider:   MailContact{ID: appt.ProviderID},
			User:       MailContact{ID: appt.UserID},
		},
	}
	if appt.Provider != nil {
		p.Appointment.Provider.Name = appt.Provider.Name
		p.Appointment.Provider.Email = appt.Provider.Email
	}
	if appt.User != nil {
		p.Appointment.User.Name = appt.User.Name
	}
	return p
}
