// Package locale formats user-facing text for the notification and mail channels.
package locale

import (
	"fmt"
	"time"
)

var ptMonths = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// Messages renders user-facing notification text in one locale and time zone.
type Messages struct {
	locale string
	loc    *time.Location
}

// New supports "pt-BR" (default) and "en". A nil location means UTC.
func New(locale string, loc *time.Location) *Messages {
	if loc == nil {
		loc = time.UTC
	}
	if locale != "en" {
		locale = "pt-BR"
	}
	return &Messages{locale: locale, loc: loc}
}

func Default() *Messages {
	return New("pt-BR", time.UTC)
}

func (m *Messages) Locale() string {
	return m.locale
}

func (m *Messages) NewBooking(userName string, date time.Time) string {
	return fmt.Sprintf(m.newBookingFormat(), userName, m.FormatDate(date))
}

func (m *Messages) newBookingFormat() string {
	if m.locale == "en" {
		return "New appointment from %s on %s"
	}
	return "Novo agendamento de %s para %s"
}

// FormatDate renders "dia 10 de janeiro, às 15:00h" (pt-BR) or
// "January 10 at 15:00" (en) in the configured zone.
func (m *Messages) FormatDate(date time.Time) string {
	t := date.In(m.loc)
	if m.locale == "en" {
		return t.Format("January 2 at 15:04")
	}
	return fmt.Sprintf("dia %d de %s, às %sh", t.Day(), ptMonths[t.Month()-1], t.Format("15:04"))
}
