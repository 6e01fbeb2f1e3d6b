package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "fueltracker.v1.FuelTracker"

// Full method names, as seen by interceptors.
const (
	MethodRegister   = "/" + ServiceName + "/Register"
	MethodLogin      = "/" + ServiceName + "/Login"
	MethodStatus     = "/" + ServiceName + "/Status"
	MethodGetArchive = "/" + ServiceName + "/GetArchive"
	MethodPutArchive = "/" + ServiceName + "/PutArchive"
)

// FuelTrackerServer is the server API of the FuelTracker service.
type FuelTrackerServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Status(context.Context, *emptypb.Empty) (*StatusResponse, error)
	GetArchive(context.Context, *emptypb.Empty) (*GetArchiveResponse, error)
	PutArchive(context.Context, *PutArchiveRequest) (*PutArchiveResponse, error)
}

// UnimplementedFuelTrackerServer can be embedded to get Unimplemented
// errors for methods a server does not provide.
type UnimplementedFuelTrackerServer struct{}

func (UnimplementedFuelTrackerServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedFuelTrackerServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedFuelTrackerServer) Status(context.Context, *emptypb.Empty) (*StatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Status not implemented")
}
func (UnimplementedFuelTrackerServer) GetArchive(context.Context, *emptypb.Empty) (*GetArchiveResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetArchive not implemented")
}
func (UnimplementedFuelTrackerServer) PutArchive(context.Context, *PutArchiveRequest) (*PutArchiveResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PutArchive not implemented")
}

// RegisterFuelTrackerServer registers srv on s.
func RegisterFuelTrackerServer(s grpc.ServiceRegistrar, srv FuelTrackerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the FuelTracker service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FuelTrackerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", MethodRegister, FuelTrackerServer.Register),
		unary("Login", MethodLogin, FuelTrackerServer.Login),
		unary("Status", MethodStatus, FuelTrackerServer.Status),
		unary("GetArchive", MethodGetArchive, FuelTrackerServer.GetArchive),
		unary("PutArchive", MethodPutArchive, FuelTrackerServer.PutArchive),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fueltracker/v1/fueltracker.proto",
}

// unary builds the method handler the way protoc-gen-go-grpc does: decode
// the request, then call through the interceptor chain if there is one.
func unary[Req, Resp any](name, fullMethod string, call func(FuelTrackerServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(FuelTrackerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(FuelTrackerServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
