// Package grpcserver exposes the FuelTracker gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"
	"net"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/and161185/fuel-tracker/internal/convert"
	"github.com/and161185/fuel-tracker/internal/errs"
	"github.com/and161185/fuel-tracker/internal/rpc"
	"github.com/and161185/fuel-tracker/internal/service"
)

// Server wires services into gRPC handlers. Authenticated methods expect
// AuthUnary to have put the caller's id into the context.
type Server struct {
	rpc.UnimplementedFuelTrackerServer
	auth     service.AuthService
	archives service.ArchiveService
}

var _ rpc.FuelTrackerServer = (*Server)(nil)

// New constructs a gRPC server with injected services.
func New(auth service.AuthService, archives service.ArchiveService) *Server {
	return &Server{auth: auth, archives: archives}
}

// --- Auth ---

// Register creates a new user account.
func (s *Server) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "empty username/password")
	}
	userID, err := s.auth.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus("register", err)
	}
	return &rpc.RegisterResponse{UserID: userID}, nil
}

// remoteIP is the peer host without its port, so reconnects from the same
// machine share a rate limit bucket.
func remoteIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Login authenticates a user and returns an access token.
func (s *Server) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	tok, u, err := s.auth.LoginWithIP(ctx, req.Username, req.Password, remoteIP(ctx))
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "bad credentials")
		}
		return nil, toStatus("login", err)
	}
	return convert.ToLoginResponse(tok, u), nil
}

// Status reports who the bearer token belongs to.
func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*rpc.StatusResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.auth.Whoami(ctx, userID)
	if err != nil {
		return nil, toStatus("status", err)
	}
	return convert.ToStatusResponse(u), nil
}

// --- Archive ---

// GetArchive returns the caller's whole document, creating it on first access.
func (s *Server) GetArchive(ctx context.Context, _ *emptypb.Empty) (*rpc.GetArchiveResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	f, err := s.archives.Fetch(ctx, userID)
	if err != nil {
		return nil, toStatus("get archive", err)
	}
	return convert.ToGetArchiveResponse(f), nil
}

// PutArchive replaces the caller's whole document.
func (s *Server) PutArchive(ctx context.Context, req *rpc.PutArchiveRequest) (*rpc.PutArchiveResponse, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.Document) == 0 || string(req.Document) == "null" {
		return nil, status.Error(codes.InvalidArgument, "invalid_payload")
	}
	info, err := s.archives.Save(ctx, userID, req.Document)
	if err != nil {
		return nil, toStatus("put archive", err)
	}
	return &rpc.PutArchiveResponse{HasData: info.HasData}, nil
}

func callerID(ctx context.Context) (uuid.UUID, error) {
	c, ok := CallerFromContext(ctx)
	if !ok || c.UserID == uuid.Nil {
		return uuid.Nil, status.Error(codes.Unauthenticated, "no auth")
	}
	return c.UserID, nil
}

// toStatus maps domain sentinels to gRPC codes.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return status.Errorf(codes.InvalidArgument, "%s: %v", op, err)
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Errorf(codes.AlreadyExists, "%s: already exists", op)
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "no auth")
	case errors.Is(err, errs.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "rate limited")
	case errors.Is(err, errs.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s: not found", op)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, op)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, op)
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}
