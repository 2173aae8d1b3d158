// Package svcerr defines the failure kinds returned by the booking services.
// Each kind carries a stable machine-readable code and a message that is safe
// to show to clients.
package svcerr

import "errors"

type Kind string

const (
	KindInvalidProvider          Kind = "invalid_provider"
	KindSelfBookingDenied        Kind = "self_booking_denied"
	KindPastDate                 Kind = "past_date"
	KindSlotUnavailable          Kind = "slot_unavailable"
	KindNotFound                 Kind = "not_found"
	KindNotOwner                 Kind = "not_owner"
	KindCancellationWindowClosed Kind = "cancellation_window_closed"
	KindNotAProvider             Kind = "not_a_provider"
	KindDependencyUnavailable    Kind = "dependency_unavailable"
)

var messages = map[Kind]string{
	KindInvalidProvider:          "Appointments can only be assigned to providers.",
	KindSelfBookingDenied:        "You can't book an appointment with yourself.",
	KindPastDate:                 "Appointments need to be scheduled in a future date.",
	KindSlotUnavailable:          "Appointment schedule is not available.",
	KindNotFound:                 "Appointment not found.",
	KindNotOwner:                 "You don't have permission to cancel this appointment.",
	KindCancellationWindowClosed: "You can only cancel appointments 2 hours in advance.",
	KindNotAProvider:             "Only providers have notifications.",
	KindDependencyUnavailable:    "Service temporarily unavailable. Try again.",
}

type Error struct {
	Kind Kind
	err  error
}

func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Dependency wraps a collaborator failure. The cause stays reachable through
// errors.Unwrap for logging but never reaches Message.
func Dependency(err error) *Error {
	return &Error{Kind: KindDependencyUnavailable, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return string(e.Kind) + ": " + e.err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Message() string {
	if msg, ok := messages[e.Kind]; ok {
		return msg
	}
	return "internal error"
}

// Retryable reports whether the caller may retry the same request unchanged.
func (e *Error) Retryable() bool {
	return e.Kind == KindDependencyUnavailable
}

// KindOf returns the kind carried by err, or "" when err is not a service error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
