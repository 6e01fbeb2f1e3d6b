// Package client is the CLI side of the FuelTracker RPC service. It
// implements archive.Gateway on top of the JSON-codec gRPC client and adds
// the account calls used by the session layer.
package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/and161185/fuel-tracker/internal/archive"
	"github.com/and161185/fuel-tracker/internal/convert"
	"github.com/and161185/fuel-tracker/internal/errs"
	"github.com/and161185/fuel-tracker/internal/model"
	"github.com/and161185/fuel-tracker/internal/rpc"
)

// DefaultTimeout bounds a single RPC when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

var _ archive.Gateway = (*Client)(nil)

// Options describe how to reach the backend.
type Options struct {
	Addr      string
	CACert    string // PEM bundle used instead of the system roots
	Insecure  bool   // TLS without certificate verification (dev)
	Plaintext bool   // no TLS at all (local dev, tests)
	Timeout   time.Duration
}

// TokenSource returns the current bearer token or an error wrapping
// errs.ErrUnauthorized when the user is not signed in.
type TokenSource func() (string, error)

// Client talks to the backend. Safe for concurrent use.
type Client struct {
	api     rpc.FuelTrackerClient
	conn    *grpc.ClientConn
	tokens  TokenSource
	timeout time.Duration
	secure  bool
}

// Option configures a Client built by New.
type Option func(*Client)

// WithTimeout sets the per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithTransportSecurity controls whether bearer tokens may only be sent over TLS.
func WithTransportSecurity(secure bool) Option { return func(c *Client) { c.secure = secure } }

// New wraps an existing connection. tokens may be nil for a client that
// only registers and logs in.
func New(cc grpc.ClientConnInterface, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		api:     rpc.NewFuelTrackerClient(cc),
		tokens:  tokens,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dial creates a connection to o.Addr. The connection is established lazily
// on the first call.
func Dial(o Options, tokens TokenSource) (*Client, error) {
	if o.Addr == "" {
		return nil, errors.New("client: empty server address")
	}
	var creds credentials.TransportCredentials
	if o.Plaintext {
		creds = insecure.NewCredentials()
	} else {
		var err error
		creds, err = loadTLS(o.CACert, o.Insecure)
		if err != nil {
			return nil, err
		}
	}
	cc, err := grpc.NewClient(o.Addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", o.Addr, err)
	}
	timeout := o.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := New(cc, tokens, WithTimeout(timeout), WithTransportSecurity(!o.Plaintext))
	c.conn = cc
	return c, nil
}

// Close releases the connection created by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Register creates an account and returns its id.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	resp, err := c.api.Register(ctx, &rpc.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("register: %w", fromStatus(err))
	}
	return resp.UserID, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (model.Tokens, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	resp, err := c.api.Login(ctx, &rpc.LoginRequest{Username: username, Password: password})
	if err != nil {
		return model.Tokens{}, fmt.Errorf("login: %w", fromStatus(err))
	}
	return convert.FromLoginResponse(resp)
}

// Whoami asks the backend who the stored token belongs to.
func (c *Client) Whoami(ctx context.Context) (model.User, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	opts, err := c.authorized()
	if err != nil {
		return model.User{}, fmt.Errorf("status: %w", err)
	}
	resp, err := c.api.Status(ctx, opts...)
	if err != nil {
		return model.User{}, fmt.Errorf("status: %w", fromStatus(err))
	}
	id, err := uuid.FromString(resp.UserID)
	if err != nil {
		return model.User{}, fmt.Errorf("status: bad user id %q: %w", resp.UserID, err)
	}
	return model.User{ID: id, Username: resp.Username}, nil
}

// FetchArchive implements archive.Gateway.
func (c *Client) FetchArchive(ctx context.Context) (model.Fetched, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	opts, err := c.authorized()
	if err != nil {
		return model.Fetched{}, transport("fetch archive", err)
	}
	resp, err := c.api.GetArchive(ctx, opts...)
	if err != nil {
		return model.Fetched{}, transport("fetch archive", fromStatus(err))
	}
	f, err := convert.FromGetArchiveResponse(resp)
	if err != nil {
		return model.Fetched{}, transport("fetch archive", err)
	}
	return f, nil
}

// SaveArchive implements archive.Gateway.
func (c *Client) SaveArchive(ctx context.Context, doc json.RawMessage) (model.ArchiveInfo, error) {
	ctx, cancel := c.callCtx(ctx)
	defer cancel()
	opts, err := c.authorized()
	if err != nil {
		return model.ArchiveInfo{}, transport("save archive", err)
	}
	resp, err := c.api.PutArchive(ctx, convert.ToPutArchiveRequest(doc), opts...)
	if err != nil {
		return model.ArchiveInfo{}, transport("save archive", fromStatus(err))
	}
	return convert.FromPutArchiveResponse(resp), nil
}

func (c *Client) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) authorized() ([]grpc.CallOption, error) {
	if c.tokens == nil {
		return nil, fmt.Errorf("%w: not signed in", errs.ErrUnauthorized)
	}
	tok, err := c.tokens()
	if err != nil {
		return nil, err
	}
	if tok == "" {
		return nil, fmt.Errorf("%w: not signed in", errs.ErrUnauthorized)
	}
	return []grpc.CallOption{grpc.PerRPCCredentials(bearerCreds{token: tok, secure: c.secure})}, nil
}

// ---- transport helpers ----

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}

func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		//nolint:gosec // explicit dev switch
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("read CA cert: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}), nil
}

// fromStatus turns a gRPC status into the matching sentinel, keeping the
// server's message.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.Unauthenticated:
		sentinel = errs.ErrUnauthorized
	case codes.AlreadyExists:
		sentinel = errs.ErrAlreadyExists
	case codes.ResourceExhausted:
		sentinel = errs.ErrRateLimited
	case codes.InvalidArgument:
		sentinel = errs.ErrValidation
	case codes.NotFound:
		sentinel = errs.ErrNotFound
	case codes.Canceled:
		sentinel = context.Canceled
	case codes.DeadlineExceeded:
		sentinel = context.DeadlineExceeded
	default:
		sentinel = errs.ErrTransport
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}

// transport wraps err so that every gateway failure matches errs.ErrTransport.
func transport(op string, err error) error {
	if errors.Is(err, errs.ErrTransport) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, errs.ErrTransport, err)
}
