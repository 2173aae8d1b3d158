package appointlyv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "appointly.v1.BookingService"

const (
	BookFullMethod              = "/" + ServiceName + "/Book"
	CancelFullMethod            = "/" + ServiceName + "/Cancel"
	ListAppointmentsFullMethod  = "/" + ServiceName + "/ListAppointments"
	ListNotificationsFullMethod = "/" + ServiceName + "/ListNotifications"
)

type BookingServiceServer interface {
	Book(context.Context, *BookRequest) (*BookResponse, error)
	Cancel(context.Context, *CancelRequest) (*CancelResponse, error)
	ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error)
	ListNotifications(context.Context, *ListNotificationsRequest) (*ListNotificationsResponse, error)
}

// UnimplementedBookingServiceServer can be embedded to stay forward compatible.
type UnimplementedBookingServiceServer struct{}

func (UnimplementedBookingServiceServer) Book(context.Context, *BookRequest) (*BookResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Book not implemented")
}

func (UnimplementedBookingServiceServer) Cancel(context.Context, *CancelRequest) (*CancelResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Cancel not implemented")
}

func (UnimplementedBookingServiceServer) ListAppointments(context.Context, *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAppointments not implemented")
}

func (UnimplementedBookingServiceServer) ListNotifications(context.Context, *ListNotificationsRequest) (*ListNotificationsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListNotifications not implemented")
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingServiceDesc, srv)
}

// unaryHandler adapts one typed RPC method to a grpc.MethodDesc handler.
func unaryHandler[Req any, PReq interface {
	*Req
	wireMessage
}, Resp any](fullMethod string, call func(BookingServiceServer, context.Context, PReq) (Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BookingServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BookingServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var BookingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Book",
			Handler:    unaryHandler(BookFullMethod, BookingServiceServer.Book),
		},
		{
			MethodName: "Cancel",
			Handler:    unaryHandler(CancelFullMethod, BookingServiceServer.Cancel),
		},
		{
			MethodName: "ListAppointments",
			Handler:    unaryHandler(ListAppointmentsFullMethod, BookingServiceServer.ListAppointments),
		},
		{
			MethodName: "ListNotifications",
			Handler:    unaryHandler(ListNotificationsFullMethod, BookingServiceServer.ListNotifications),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "appointly/v1/booking.proto",
}

type BookingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingServiceClient(cc grpc.ClientConnInterface) *BookingServiceClient {
	return &BookingServiceClient{cc: cc}
}

func (c *BookingServiceClient) Book(ctx context.Context, in *BookRequest, opts ...grpc.CallOption) (*BookResponse, error) {
	out := new(BookResponse)
	if err := c.invoke(ctx, BookFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) Cancel(ctx context.Context, in *CancelRequest, opts ...grpc.CallOption) (*CancelResponse, error) {
	out := new(CancelResponse)
	if err := c.invoke(ctx, CancelFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) ListAppointments(ctx context.Context, in *ListAppointmentsRequest, opts ...grpc.CallOption) (*ListAppointmentsResponse, error) {
	out := new(ListAppointmentsResponse)
	if err := c.invoke(ctx, ListAppointmentsFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) ListNotifications(ctx context.Context, in *ListNotificationsRequest, opts ...grpc.CallOption) (*ListNotificationsResponse, error) {
	out := new(ListNotificationsResponse)
	if err := c.invoke(ctx, ListNotificationsFullMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}
