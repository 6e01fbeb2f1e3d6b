package grpcserver

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func TestCallerContext(t *testing.T) {
	t.Parallel()

	_, ok := CallerFromContext(context.Background())
	require.False(t, ok)

	want := Caller{UserID: uuid.Must(uuid.NewV4()), ExpiresAt: time.Unix(1700000000, 0)}
	got, ok := CallerFromContext(ContextWithCaller(context.Background(), want))
	require.True(t, ok)
	require.Equal(t, want, got)

	// a value under a look-alike key is not a caller
	type otherKey struct{}
	ctx := context.WithValue(context.Background(), otherKey{}, want)
	_, ok = CallerFromContext(ctx)
	require.False(t, ok)
}
