// Package appointlyv1 holds the wire messages, service descriptor and client
// of the appointly.v1.BookingService API described in api/appointly/v1/booking.proto.
package appointlyv1

import (
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type Provider struct {
	Id        int64
	Name      string
	AvatarUrl string
}

func (m *Provider) appendWire(b []byte) ([]byte, error) {
	b = appendInt64(b, 1, m.Id)
	b = appendString(b, 2, m.Name)
	b = appendString(b, 3, m.AvatarUrl)
	return b, nil
}

func (m *Provider) unmarshalWire(b []byte) error {
	*m = Provider{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			return consumeInt64(b, &m.Id)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(b, &m.Name)
		case num == 3 && typ == protowire.BytesType:
			return consumeString(b, &m.AvatarUrl)
		}
		return -1, nil
	})
}

type Appointment struct {
	Id         string
	UserId     int64
	ProviderId int64
	Date       *timestamppb.Timestamp
	CanceledAt *timestamppb.Timestamp
	Past       bool
	Cancelable bool
	Provider   *Provider
	CreatedAt  *timestamppb.Timestamp
	UpdatedAt  *timestamppb.Timestamp
}

func (m *Appointment) appendWire(b []byte) ([]byte, error) {
	var err error
	b = appendString(b, 1, m.Id)
	b = appendInt64(b, 2, m.UserId)
	b = appendInt64(b, 3, m.ProviderId)
	if b, err = appendTimestamp(b, 4, m.Date); err != nil {
		return nil, err
	}
	if b, err = appendTimestamp(b, 5, m.CanceledAt); err != nil {
		return nil, err
	}
	b = appendBool(b, 6, m.Past)
	b = appendBool(b, 7, m.Cancelable)
	if m.Provider != nil {
		if b, err = appendMessage(b, 8, m.Provider); err != nil {
			return nil, err
		}
	}
	if b, err = appendTimestamp(b, 9, m.CreatedAt); err != nil {
		return nil, err
	}
	return appendTimestamp(b, 10, m.UpdatedAt)
}

func (m *Appointment) unmarshalWire(b []byte) error {
	*m = Appointment{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.VarintType {
			switch num {
			case 2:
				return consumeInt64(b, &m.UserId)
			case 3:
				return consumeInt64(b, &m.ProviderId)
			case 6:
				return consumeBool(b, &m.Past)
			case 7:
				return consumeBool(b, &m.Cancelable)
			}
			return -1, nil
		}
		if typ != protowire.BytesType {
			return -1, nil
		}
		switch num {
		case 1:
			return consumeString(b, &m.Id)
		case 4:
			return consumeTimestamp(b, &m.Date)
		case 5:
			return consumeTimestamp(b, &m.CanceledAt)
		case 8:
			m.Provider = &Provider{}
			return consumeMessage(b, m.Provider)
		case 9:
			return consumeTimestamp(b, &m.CreatedAt)
		case 10:
			return consumeTimestamp(b, &m.UpdatedAt)
		}
		return -1, nil
	})
}

type Notification struct {
	Id        string
	Content   string
	Read      bool
	CreatedAt *timestamppb.Timestamp
	UserId    int64
}

func (m *Notification) appendWire(b []byte) ([]byte, error) {
	var err error
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.Content)
	b = appendBool(b, 3, m.Read)
	if b, err = appendTimestamp(b, 4, m.CreatedAt); err != nil {
		return nil, err
	}
	return appendInt64(b, 5, m.UserId), nil
}

func (m *Notification) unmarshalWire(b []byte) error {
	*m = Notification{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			return consumeString(b, &m.Id)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(b, &m.Content)
		case num == 3 && typ == protowire.VarintType:
			return consumeBool(b, &m.Read)
		case num == 4 && typ == protowire.BytesType:
			return consumeTimestamp(b, &m.CreatedAt)
		case num == 5 && typ == protowire.VarintType:
			return consumeInt64(b, &m.UserId)
		}
		return -1, nil
	})
}

type BookRequest struct {
	ProviderId int64
	Date       *timestamppb.Timestamp
}

func (m *BookRequest) appendWire(b []byte) ([]byte, error) {
	b = appendInt64(b, 1, m.ProviderId)
	return appendTimestamp(b, 2, m.Date)
}

func (m *BookRequest) unmarshalWire(b []byte) error {
	*m = BookRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			return consumeInt64(b, &m.ProviderId)
		case num == 2 && typ == protowire.BytesType:
			return consumeTimestamp(b, &m.Date)
		}
		return -1, nil
	})
}

type BookResponse struct {
	Appointment *Appointment
}

func (m *BookResponse) appendWire(b []byte) ([]byte, error) {
	return appendAppointment(b, m.Appointment)
}

func (m *BookResponse) unmarshalWire(b []byte) error {
	*m = BookResponse{}
	return consumeAppointment(b, &m.Appointment)
}

type CancelRequest struct {
	AppointmentId string
}

func (m *CancelRequest) appendWire(b []byte) ([]byte, error) {
	return appendString(b, 1, m.AppointmentId), nil
}

func (m *CancelRequest) unmarshalWire(b []byte) error {
	*m = CancelRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			return consumeString(b, &m.AppointmentId)
		}
		return -1, nil
	})
}

type CancelResponse struct {
	Appointment *Appointment
}

func (m *CancelResponse) appendWire(b []byte) ([]byte, error) {
	return appendAppointment(b, m.Appointment)
}

func (m *CancelResponse) unmarshalWire(b []byte) error {
	*m = CancelResponse{}
	return consumeAppointment(b, &m.Appointment)
}

type ListAppointmentsRequest struct {
	Page int32
}

func (m *ListAppointmentsRequest) appendWire(b []byte) ([]byte, error) {
	return appendInt64(b, 1, int64(m.Page)), nil
}

func (m *ListAppointmentsRequest) unmarshalWire(b []byte) error {
	*m = ListAppointmentsRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.VarintType {
			return consumeInt32(b, &m.Page)
		}
		return -1, nil
	})
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment
}

func (m *ListAppointmentsResponse) appendWire(b []byte) ([]byte, error) {
	var err error
	for _, a := range m.Appointments {
		if b, err = appendMessage(b, 1, a); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (m *ListAppointmentsResponse) unmarshalWire(b []byte) error {
	*m = ListAppointmentsResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			a := &Appointment{}
			n, err := consumeMessage(b, a)
			if err != nil {
				return 0, err
			}
			m.Appointments = append(m.Appointments, a)
			return n, nil
		}
		return -1, nil
	})
}

type ListNotificationsRequest struct{}

func (m *ListNotificationsRequest) appendWire(b []byte) ([]byte, error) {
	return b, nil
}

func (m *ListNotificationsRequest) unmarshalWire(b []byte) error {
	return consumeFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) {
		return -1, nil
	})
}

type ListNotificationsResponse struct {
	Notifications []*Notification
}

func (m *ListNotificationsResponse) appendWire(b []byte) ([]byte, error) {
	var err error
	for _, n := range m.Notifications {
		if b, err = appendMessage(b, 1, n); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (m *ListNotificationsResponse) unmarshalWire(b []byte) error {
	*m = ListNotificationsResponse{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			n := &Notification{}
			used, err := consumeMessage(b, n)
			if err != nil {
				return 0, err
			}
			m.Notifications = append(m.Notifications, n)
			return used, nil
		}
		return -1, nil
	})
}

func appendAppointment(b []byte, a *Appointment) ([]byte, error) {
	if a == nil {
		return b, nil
	}
	return appendMessage(b, 1, a)
}

func consumeAppointment(b []byte, dst **Appointment) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			a := &Appointment{}
			n, err := consumeMessage(b, a)
			if err != nil {
				return 0, err
			}
			*dst = a
			return n, nil
		}
		return -1, nil
	})
}
