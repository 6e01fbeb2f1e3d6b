package grpcserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"

	"github.com/and161185/fuel-tracker/internal/errs"
)

// Caller is the verified identity behind a request.
type Caller struct {
	UserID    uuid.UUID
	ExpiresAt time.Time
}

// TokenVerifier checks HS256 access tokens issued by the auth service.
type TokenVerifier struct {
	signKey []byte
	parser  *jwt.Parser
}

// NewTokenVerifier returns a verifier for tokens signed with signKey. Clock
// skew of up to 30s is tolerated and tokens without exp are rejected.
func NewTokenVerifier(signKey []byte) TokenVerifier {
	return TokenVerifier{
		signKey: signKey,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(30*time.Second),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify validates raw and returns its subject. Failures wrap errs.ErrUnauthorized.
func (v TokenVerifier) Verify(raw string) (Caller, error) {
	var claims jwt.RegisteredClaims
	if _, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.signKey, nil
	}); err != nil {
		return Caller{}, fmt.Errorf("%w: %v", errs.ErrUnauthorized, err)
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil || id == uuid.Nil {
		return Caller{}, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	return Caller{UserID: id, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// FromMetadata verifies the "authorization: Bearer <jwt>" header of an
// incoming call.
func (v TokenVerifier) FromMetadata(ctx context.Context) (Caller, error) {
	raw, ok := bearerToken(ctx)
	if !ok {
		return Caller{}, fmt.Errorf("%w: no bearer token", errs.ErrUnauthorized)
	}
	return v.Verify(raw)
}

// bearerToken returns the first non-empty bearer credential; the scheme is
// case-insensitive.
func bearerToken(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	for _, h := range md.Get("authorization") {
		scheme, tok, found := strings.Cut(strings.TrimSpace(h), " ")
		if !found || !strings.EqualFold(scheme, "bearer") {
			continue
		}
		if tok = strings.TrimSpace(tok); tok != "" {
			return tok, true
		}
	}
	return "", false
}
