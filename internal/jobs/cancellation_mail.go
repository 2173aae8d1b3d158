package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"appointly/backend/internal/locale"
	"appointly/backend/internal/mail"
	"appointly/backend/internal/queue"
)

type Deduper interface {
	// Claim returns false when id was already claimed within ttl.
	Claim(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, id string) error
}

var cancellationTemplates = map[string]*template.Template{
	"pt-BR": template.Must(template.New("cancellation").Parse(`Olá, {{.Provider}}

Houve um novo cancelamento:

Cliente: {{.User}}
Data/Hora: {{.Date}}

Este horário está novamente disponível para novos agendamentos.
`)),
	"en": template.Must(template.New("cancellation").Parse(`Hello, {{.Provider}}

An appointment was canceled:

Client: {{.User}}
Date: {{.Date}}

This slot is available for new bookings again.
`)),
}

var cancellationSubjects = map[string]string{
	"pt-BR": "Agendamento cancelado",
	"en":    "Appointment canceled",
}

type cancellationView struct {
	Provider string
	User     string
	Date     string
}

// CancellationMail tells the provider that a client canceled. Each appointment
// is mailed at most once per dedupe ttl even when the job is redelivered.
type CancellationMail struct {
	mailer   mail.Sender
	dedupe   Deduper
	ttl      time.Duration
	messages *locale.Messages
	log      *slog.Logger
}

func NewCancellationMail(mailer mail.Sender, dedupe Deduper, ttl time.Duration, messages *locale.Messages, log *slog.Logger) *CancellationMail {
	if messages == nil {
		messages = locale.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	return &CancellationMail{
		mailer:   mailer,
		dedupe:   dedupe,
		ttl:      ttl,
		messages: messages,
		log:      log.With(slog.String("component", "cancellation_mail")),
	}
}

func (h *CancellationMail) Key() string {
	return CancellationMailKey
}

func (h *CancellationMail) Handle(ctx context.Context, job queue.Job) error {
	var p CancellationPayload
	if err := job.Decode(&p); err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	appt := p.Appointment
	if appt.Provider.Email == "" {
		return fmt.Errorf("%w: appointment %s has no provider email", ErrPermanent, appt.ID)
	}

	msg, err := h.render(p)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}

	dedupeID := CancellationMailKey + ":" + appt.ID.String()
	claimed, err := h.dedupe.Claim(ctx, dedupeID, h.ttl)
	if err != nil {
		return err
	}
	if !claimed {
		h.log.Info("cancellation mail already sent", slog.String("appointment_id", appt.ID.String()))
		return nil
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		releaseErr := h.dedupe.Release(context.WithoutCancel(ctx), dedupeID)
		return errors.Join(err, releaseErr)
	}

	h.log.Info("cancellation mail sent", slog.String("appointment_id", appt.ID.String()))
	return nil
}

func (h *CancellationMail) render(p CancellationPayload) (mail.Message, error) {
	lang := h.messages.Locale()
	tmpl, ok := cancellationTemplates[lang]
	if !ok {
		return mail.Message{}, fmt.Errorf("no cancellation template for %q", lang)
	}

	var body strings.Builder
	err := tmpl.Execute(&body, cancellationView{
		Provider: p.Appointment.Provider.Name,
		User:     p.Appointment.User.Name,
		Date:     h.messages.FormatDate(p.Appointment.Date),
	})
	if err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:      []string{p.Appointment.Provider.Email},
		Subject: cancellationSubjects[lang],
		Body:    body.String(),
	}, nil
}
