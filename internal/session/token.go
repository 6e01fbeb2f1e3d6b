// Package session keeps the CLI's signed-in state: the bearer token on disk
// and an observable auth status that other components subscribe to.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/fuel-tracker/internal/errs"
	"github.com/and161185/fuel-tracker/internal/fsutil"
	"github.com/and161185/fuel-tracker/internal/model"
)

const (
	appDir        = "fuel-tracker"
	tokenFileName = "token.json"
)

// DefaultDir returns $XDG_CONFIG_HOME/fuel-tracker, falling back to
// ~/.config/fuel-tracker.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appDir)
}

// Token is the persisted credential.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username,omitempty"`
}

// TokenStore reads and writes token.json in a config directory.
type TokenStore struct {
	dir string
	now func() time.Time
}

// NewTokenStore uses dir, or DefaultDir when dir is empty.
func NewTokenStore(dir string) *TokenStore {
	if dir == "" {
		dir = DefaultDir()
	}
	return &TokenStore{dir: dir, now: time.Now}
}

// Path is the token file location.
func (s *TokenStore) Path() string { return filepath.Join(s.dir, tokenFileName) }

// Save writes the token with owner-only permissions.
func (s *TokenStore) Save(tok model.Tokens, username string) error {
	exp := tok.ExpiresAt
	if exp.IsZero() {
		exp = tokenExpiry(tok.AccessToken)
	}
	b, err := json.MarshalIndent(Token{AccessToken: tok.AccessToken, ExpiresAt: exp.UTC(), Username: username}, "", "  ")
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(s.Path(), append(b, '\n'), 0o600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Load returns the stored token. A missing, unreadable or expired token is
// reported as errs.ErrUnauthorized.
func (s *TokenStore) Load() (Token, error) {
	b, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Token{}, fmt.Errorf("%w: no valid token (login required)", errs.ErrUnauthorized)
		}
		return Token{}, fmt.Errorf("read token: %w", err)
	}
	var t Token
	if err := json.Unmarshal(b, &t); err != nil {
		return Token{}, fmt.Errorf("%w: corrupt token file: %v", errs.ErrUnauthorized, err)
	}
	if t.AccessToken == "" || (!t.ExpiresAt.IsZero() && !s.now().Before(t.ExpiresAt)) {
		return Token{}, fmt.Errorf("%w: no valid token (login required)", errs.ErrUnauthorized)
	}
	return t, nil
}

// Token satisfies client.TokenSource.
func (s *TokenStore) Token() (string, error) {
	t, err := s.Load()
	if err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// Clear removes the token file. A missing file is not an error.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// tokenExpiry reads exp from a JWT without verifying it. The client cannot
// verify the signature; the value is only used to skip sending stale tokens.
func tokenExpiry(raw string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
