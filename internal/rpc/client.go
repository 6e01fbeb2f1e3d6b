package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// FuelTrackerClient is the client API of the FuelTracker service.
type FuelTrackerClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	Status(ctx context.Context, opts ...grpc.CallOption) (*StatusResponse, error)
	GetArchive(ctx context.Context, opts ...grpc.CallOption) (*GetArchiveResponse, error)
	PutArchive(ctx context.Context, in *PutArchiveRequest, opts ...grpc.CallOption) (*PutArchiveResponse, error)
}

type fuelTrackerClient struct {
	cc grpc.ClientConnInterface
}

// NewFuelTrackerClient returns a client that speaks the JSON codec over cc.
func NewFuelTrackerClient(cc grpc.ClientConnInterface) FuelTrackerClient {
	return &fuelTrackerClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fuelTrackerClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *fuelTrackerClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *fuelTrackerClient) Status(ctx context.Context, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, MethodStatus, &emptypb.Empty{}, opts)
}

func (c *fuelTrackerClient) GetArchive(ctx context.Context, opts ...grpc.CallOption) (*GetArchiveResponse, error) {
	return invoke[GetArchiveResponse](ctx, c.cc, MethodGetArchive, &emptypb.Empty{}, opts)
}

func (c *fuelTrackerClient) PutArchive(ctx context.Context, in *PutArchiveRequest, opts ...grpc.CallOption) (*PutArchiveResponse, error) {
	return invoke[PutArchiveResponse](ctx, c.cc, MethodPutArchive, in, opts)
}
