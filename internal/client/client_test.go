package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/and161185/fuel-tracker/internal/errs"
	"github.com/and161185/fuel-tracker/internal/rpc"
)

const goodToken = "tok-123"

type fakeServer struct {
	rpc.UnimplementedFuelTrackerServer

	mu       sync.Mutex
	userID   uuid.UUID
	doc      json.RawMessage
	created  bool
	putErr   error
	lastAuth string
}

func (f *fakeServer) auth(ctx context.Context) error {
	md, _ := metadata.FromIncomingContext(ctx)
	vals := md.Get("authorization")
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(vals) == 0 {
		f.lastAuth = ""
		return status.Error(codes.Unauthenticated, "no auth")
	}
	f.lastAuth = vals[0]
	if vals[0] != "Bearer "+goodToken {
		return status.Error(codes.Unauthenticated, "no auth")
	}
	return nil
}

func (f *fakeServer) Register(_ context.Context, in *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	if in.Username == "taken" {
		return nil, status.Error(codes.AlreadyExists, "register: already exists")
	}
	return &rpc.RegisterResponse{UserID: f.userID.String()}, nil
}

func (f *fakeServer) Login(_ context.Context, in *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	switch in.Password {
	case "p":
		return &rpc.LoginResponse{AccessToken: goodToken, ExpiresAt: time.Unix(2000000000, 0).UTC(), UserID: f.userID.String()}, nil
	case "spam":
		return nil, status.Error(codes.ResourceExhausted, "rate limited")
	default:
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
}

func (f *fakeServer) Status(ctx context.Context, _ *emptypb.Empty) (*rpc.StatusResponse, error) {
	if err := f.auth(ctx); err != nil {
		return nil, err
	}
	return &rpc.StatusResponse{UserID: f.userID.String(), Username: "alice"}, nil
}

func (f *fakeServer) GetArchive(ctx context.Context, _ *emptypb.Empty) (*rpc.GetArchiveResponse, error) {
	if err := f.auth(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	created := f.doc == nil
	if created {
		f.doc = json.RawMessage(`{}`)
	}
	return &rpc.GetArchiveResponse{Document: f.doc, Created: created, HasData: strings.Contains(string(f.doc), `"vehicles"`)}, nil
}

func (f *fakeServer) PutArchive(ctx context.Context, in *rpc.PutArchiveRequest) (*rpc.PutArchiveResponse, error) {
	if err := f.auth(ctx); err != nil {
		return nil, err
	}
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doc = append(json.RawMessage(nil), in.Document...)
	return &rpc.PutArchiveResponse{HasData: true}, nil
}

func startClient(t *testing.T, srv *fakeServer, tokens TokenSource, opts ...Option) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	rpc.RegisterFuelTrackerServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })
	return New(cc, tokens, opts...)
}

func staticToken(tok string) TokenSource {
	return func() (string, error) { return tok, nil }
}

func TestClient_RegisterLoginWhoami(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	c := startClient(t, &fakeServer{userID: id}, staticToken(goodToken))
	ctx := context.Background()

	uid, err := c.Register(ctx, "alice", "p")
	require.NoError(t, err)
	require.Equal(t, id.String(), uid)

	_, err = c.Register(ctx, "taken", "p")
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	tok, err := c.Login(ctx, "alice", "p")
	require.NoError(t, err)
	require.Equal(t, goodToken, tok.AccessToken)
	require.True(t, tok.ExpiresAt.Equal(time.Unix(2000000000, 0)))

	_, err = c.Login(ctx, "alice", "bad")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = c.Login(ctx, "alice", "spam")
	require.ErrorIs(t, err, errs.ErrRateLimited)

	u, err := c.Whoami(ctx)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "alice", u.Username)
}

func TestClient_FetchAndSave(t *testing.T) {
	srv := &fakeServer{userID: uuid.Must(uuid.NewV4())}
	c := startClient(t, srv, staticToken(goodToken))
	ctx := context.Background()

	f, err := c.FetchArchive(ctx)
	require.NoError(t, err)
	require.True(t, f.Info.Created)
	require.False(t, f.Info.HasData)
	require.JSONEq(t, `{}`, string(f.Document))

	doc := json.RawMessage(`{"vehicles":[{"id":1,"name":"Car"}],"refuels":[]}`)
	info, err := c.SaveArchive(ctx, doc)
	require.NoError(t, err)
	require.True(t, info.HasData)
	require.False(t, info.Created)

	f, err = c.FetchArchive(ctx)
	require.NoError(t, err)
	require.False(t, f.Info.Created)
	require.JSONEq(t, string(doc), string(f.Document))

	srv.mu.Lock()
	require.Equal(t, "Bearer "+goodToken, srv.lastAuth)
	srv.mu.Unlock()
}

func TestClient_GatewayErrorsAreTransport(t *testing.T) {
	srv := &fakeServer{userID: uuid.Must(uuid.NewV4())}
	ctx := context.Background()

	t.Run("no token source", func(t *testing.T) {
		c := startClient(t, srv, nil)
		_, err := c.FetchArchive(ctx)
		require.ErrorIs(t, err, errs.ErrTransport)
		require.ErrorIs(t, err, errs.ErrUnauthorized)
	})

	t.Run("token source fails", func(t *testing.T) {
		c := startClient(t, srv, func() (string, error) { return "", errs.ErrUnauthorized })
		_, err := c.SaveArchive(ctx, json.RawMessage(`{}`))
		require.ErrorIs(t, err, errs.ErrTransport)
		require.ErrorIs(t, err, errs.ErrUnauthorized)
	})

	t.Run("rejected token", func(t *testing.T) {
		c := startClient(t, srv, staticToken("stale"))
		_, err := c.FetchArchive(ctx)
		require.ErrorIs(t, err, errs.ErrTransport)
		require.ErrorIs(t, err, errs.ErrUnauthorized)
	})

	t.Run("backend failure", func(t *testing.T) {
		bad := &fakeServer{userID: srv.userID, putErr: status.Error(codes.Internal, "disk full")}
		c := startClient(t, bad, staticToken(goodToken))
		_, err := c.SaveArchive(ctx, json.RawMessage(`{}`))
		require.ErrorIs(t, err, errs.ErrTransport)
		require.Contains(t, err.Error(), "disk full")
	})

	t.Run("invalid document", func(t *testing.T) {
		bad := &fakeServer{userID: srv.userID, putErr: status.Error(codes.InvalidArgument, "invalid_payload")}
		c := startClient(t, bad, staticToken(goodToken))
		_, err := c.SaveArchive(ctx, json.RawMessage(`{}`))
		require.ErrorIs(t, err, errs.ErrTransport)
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestClient_SecureBearerOverPlaintextFails(t *testing.T) {
	srv := &fakeServer{userID: uuid.Must(uuid.NewV4())}
	c := startClient(t, srv, staticToken(goodToken), WithTransportSecurity(true))

	_, err := c.FetchArchive(context.Background())
	require.ErrorIs(t, err, errs.ErrTransport)
	srv.mu.Lock()
	require.Empty(t, srv.lastAuth, "token must not leave over an insecure connection")
	srv.mu.Unlock()
}

func TestClient_CallTimeout(t *testing.T) {
	c := New(nil, nil, WithTimeout(time.Second))
	ctx, cancel := c.callCtx(context.Background())
	defer cancel()
	_, ok := ctx.Deadline()
	require.True(t, ok)

	parent, pcancel := context.WithTimeout(context.Background(), time.Hour)
	defer pcancel()
	ctx2, cancel2 := c.callCtx(parent)
	defer cancel2()
	require.Equal(t, parent, ctx2)

	c = New(nil, nil, WithTimeout(0))
	ctx3, cancel3 := c.callCtx(context.Background())
	defer cancel3()
	_, ok = ctx3.Deadline()
	require.False(t, ok)
}

func TestDial_Validation(t *testing.T) {
	_, err := Dial(Options{}, nil)
	require.Error(t, err)

	_, err = Dial(Options{Addr: "localhost:1", CACert: "/does/not/exist.pem"}, nil)
	require.Error(t, err)

	c, err := Dial(Options{Addr: "localhost:1", Plaintext: true}, nil)
	require.NoError(t, err)
	require.False(t, c.secure)
	require.Equal(t, DefaultTimeout, c.timeout)
	require.NoError(t, c.Close())

	c, err = Dial(Options{Addr: "localhost:1", Insecure: true, Timeout: time.Second}, nil)
	require.NoError(t, err)
	require.True(t, c.secure)
	require.Equal(t, time.Second, c.timeout)
	require.NoError(t, c.Close())
}

func TestFromStatus(t *testing.T) {
	plain := errors.New("boom")
	require.Equal(t, plain, fromStatus(plain))

	cases := map[codes.Code]error{
		codes.Unauthenticated:   errs.ErrUnauthorized,
		codes.AlreadyExists:     errs.ErrAlreadyExists,
		codes.ResourceExhausted: errs.ErrRateLimited,
		codes.InvalidArgument:   errs.ErrValidation,
		codes.NotFound:          errs.ErrNotFound,
		codes.DeadlineExceeded:  context.DeadlineExceeded,
		codes.Unavailable:       errs.ErrTransport,
	}
	for code, want := range cases {
		require.ErrorIs(t, fromStatus(status.Error(code, "x")), want, code.String())
	}
}
