package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/fuel-tracker/internal/errs"
	"github.com/and161185/fuel-tracker/internal/model"
	"github.com/and161185/fuel-tracker/internal/observe"
)

// Authenticator is the backend side of signing in.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (model.Tokens, error)
	Whoami(ctx context.Context) (model.User, error)
}

// Status is the observable auth state.
type Status struct {
	Authenticated bool
	Username      string
	ExpiresAt     time.Time
}

// Session ties the token store to the backend and publishes Status changes.
type Session struct {
	tokens *TokenStore
	auth   Authenticator
	log    *zap.Logger
	state  *observe.Value[Status]
}

// New builds a session. The initial status is derived from the token file
// without a network call.
func New(tokens *TokenStore, auth Authenticator, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	initial := Status{}
	if t, err := tokens.Load(); err == nil {
		initial = Status{Authenticated: true, Username: t.Username, ExpiresAt: t.ExpiresAt}
	}
	return &Session{tokens: tokens, auth: auth, log: log, state: observe.NewValue(initial)}
}

// Current returns the last known status without contacting the backend.
func (s *Session) Current() Status { return s.state.Get() }

// Subscribe registers fn for status changes; fn is called immediately with
// the current status.
func (s *Session) Subscribe(fn func(Status)) (cancel func()) { return s.state.Subscribe(fn) }

// Token returns the stored bearer token.
func (s *Session) Token() (string, error) { return s.tokens.Token() }

// Status verifies the stored token with the backend. A token the backend
// rejects is removed and the session becomes signed out.
func (s *Session) Status(ctx context.Context) (Status, error) {
	t, err := s.tokens.Load()
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			s.set(Status{})
			return Status{}, nil
		}
		return Status{}, err
	}
	u, err := s.auth.Whoami(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			s.log.Debug("stored token rejected", zap.Error(err))
			if cerr := s.tokens.Clear(); cerr != nil {
				return Status{}, cerr
			}
			s.set(Status{})
			return Status{}, nil
		}
		return Status{}, err
	}
	st := Status{Authenticated: true, Username: u.Username, ExpiresAt: t.ExpiresAt}
	s.set(st)
	return st, nil
}

// SignIn logs in and stores the token.
func (s *Session) SignIn(ctx context.Context, username, password string) (Status, error) {
	tok, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return Status{}, err
	}
	if err := s.tokens.Save(tok, username); err != nil {
		return Status{}, err
	}
	t, err := s.tokens.Load()
	if err != nil {
		return Status{}, fmt.Errorf("sign in: %w", err)
	}
	st := Status{Authenticated: true, Username: username, ExpiresAt: t.ExpiresAt}
	s.log.Debug("signed in", zap.String("username", username), zap.Time("expires_at", t.ExpiresAt))
	s.set(st)
	return st, nil
}

// SignOut forgets the token. Subscribers observe the signed-out status
// even when the file could not be removed.
func (s *Session) SignOut() error {
	err := s.tokens.Clear()
	s.set(Status{})
	return err
}

func (s *Session) set(st Status) {
	s.state.Set(st)
}
