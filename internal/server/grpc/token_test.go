package grpcserver

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	"github.com/and161185/fuel-tracker/internal/errs"
)

var testKey = []byte("secret")

func signToken(t *testing.T, claims jwt.RegisteredClaims, method jwt.SigningMethod, key []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(sub string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now().UTC()
	return jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func ctxWithAuth(header string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", header))
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		ctx    context.Context
		want   string
		wantOK bool
	}{
		{"bearer", ctxWithAuth("Bearer abc.def.ghi"), "abc.def.ghi", true},
		{"lowercase scheme", ctxWithAuth("bearer  abc"), "abc", true},
		{"basic", ctxWithAuth("Basic foo"), "", false},
		{"empty token", ctxWithAuth("Bearer   "), "", false},
		{"scheme only", ctxWithAuth("Bearer"), "", false},
		{"no metadata", context.Background(), "", false},
		{"second header", metadata.NewIncomingContext(context.Background(),
			metadata.Pairs("authorization", "Basic x", "authorization", "Bearer y")), "y", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := bearerToken(tc.ctx)
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestTokenVerifier_Valid(t *testing.T) {
	t.Parallel()

	v := NewTokenVerifier(testKey)
	sub := uuid.Must(uuid.NewV4())
	claims := validClaims(sub.String(), 10*time.Minute)

	c, err := v.FromMetadata(ctxWithAuth("Bearer " + signToken(t, claims, jwt.SigningMethodHS256, testKey)))
	require.NoError(t, err)
	require.Equal(t, sub, c.UserID)
	require.True(t, c.ExpiresAt.Equal(claims.ExpiresAt.Time))
}

func TestTokenVerifier_Rejects(t *testing.T) {
	t.Parallel()

	v := NewTokenVerifier(testKey)
	sub := uuid.Must(uuid.NewV4()).String()

	cases := map[string]string{
		"expired":     signToken(t, validClaims(sub, -time.Hour), jwt.SigningMethodHS256, testKey),
		"bad subject": signToken(t, validClaims("not-a-uuid", time.Hour), jwt.SigningMethodHS256, testKey),
		"nil subject": signToken(t, validClaims(uuid.Nil.String(), time.Hour), jwt.SigningMethodHS256, testKey),
		"wrong alg":   signToken(t, validClaims(sub, time.Hour), jwt.SigningMethodHS384, testKey),
		"foreign key": signToken(t, validClaims(sub, time.Hour), jwt.SigningMethodHS256, []byte("other")),
		"no expiry":   signToken(t, jwt.RegisteredClaims{Subject: sub}, jwt.SigningMethodHS256, testKey),
		"garbage":     "this-is-not-a-jwt",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(raw)
			require.ErrorIs(t, err, errs.ErrUnauthorized)
		})
	}

	_, err := v.FromMetadata(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestTokenVerifier_Leeway(t *testing.T) {
	t.Parallel()

	v := NewTokenVerifier(testKey)
	sub := uuid.Must(uuid.NewV4())
	// expired a few seconds ago, still inside the skew allowance
	raw := signToken(t, validClaims(sub.String(), -5*time.Second), jwt.SigningMethodHS256, testKey)

	c, err := v.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, sub, c.UserID)
}
