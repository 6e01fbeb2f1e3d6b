package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/fuel-tracker/internal/errs"
	"github.com/and161185/fuel-tracker/internal/repository"
)

type fakeArchives struct {
	docs   map[uuid.UUID][]byte
	getErr error
	putErr error
}

var _ repository.ArchiveRepository = (*fakeArchives)(nil)

func (f *fakeArchives) GetOrCreate(_ context.Context, id uuid.UUID, empty []byte) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	if d, ok := f.docs[id]; ok {
		return d, false, nil
	}
	f.docs[id] = empty
	return empty, true, nil
}

func (f *fakeArchives) Put(_ context.Context, id uuid.UUID, doc []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.docs[id] = doc
	return nil
}

func TestArchive_FetchCreatesOnce(t *testing.T) {
	t.Parallel()

	repo := &fakeArchives{docs: map[uuid.UUID][]byte{}}
	s := NewArchiveService(repo, 0, zaptest.NewLogger(t))
	uid := uuid.Must(uuid.NewV4())

	f, err := s.Fetch(context.Background(), uid)
	require.NoError(t, err)
	require.True(t, f.Info.Created)
	require.False(t, f.Info.HasData)
	require.JSONEq(t, `{}`, string(f.Document))

	f, err = s.Fetch(context.Background(), uid)
	require.NoError(t, err)
	require.False(t, f.Info.Created)
}

func TestArchive_SaveAndHasData(t *testing.T) {
	t.Parallel()

	repo := &fakeArchives{docs: map[uuid.UUID][]byte{}}
	s := NewArchiveService(repo, 0, zaptest.NewLogger(t))
	uid := uuid.Must(uuid.NewV4())
	ctx := context.Background()

	info, err := s.Save(ctx, uid, []byte(`{"vehicles":[{"id":1,"name":"Golf"}],"refuels":[]}`))
	require.NoError(t, err)
	require.True(t, info.HasData)

	f, err := s.Fetch(ctx, uid)
	require.NoError(t, err)
	require.True(t, f.Info.HasData)
	require.False(t, f.Info.Created)

	// only malformed refuels: nothing survives normalisation
	info, err = s.Save(ctx, uid, []byte(`{"vehicles":[],"refuels":[{"liters":"x"}]}`))
	require.NoError(t, err)
	require.False(t, info.HasData)
}

func TestArchive_SaveRejectsBadDocuments(t *testing.T) {
	t.Parallel()

	repo := &fakeArchives{docs: map[uuid.UUID][]byte{}}
	s := NewArchiveService(repo, 64, zaptest.NewLogger(t))
	uid := uuid.Must(uuid.NewV4())
	ctx := context.Background()

	for name, doc := range map[string]string{
		"missing":   "",
		"not json":  "{",
		"array":     "[]",
		"null":      "null",
		"too large": `{"notes":"` + strings.Repeat("x", 100) + `"}`,
	} {
		_, err := s.Save(ctx, uid, []byte(doc))
		require.ErrorIs(t, err, errs.ErrValidation, name)
	}
	require.Empty(t, repo.docs)

	_, err := s.Save(ctx, uuid.Nil, []byte(`{}`))
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = s.Fetch(ctx, uuid.Nil)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestArchive_RepoErrorsPropagate(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	repo := &fakeArchives{docs: map[uuid.UUID][]byte{}, getErr: boom, putErr: boom}
	s := NewArchiveService(repo, 0, nil)
	uid := uuid.Must(uuid.NewV4())

	_, err := s.Fetch(context.Background(), uid)
	require.ErrorIs(t, err, boom)
	_, err = s.Save(context.Background(), uid, []byte(`{}`))
	require.ErrorIs(t, err, boom)
}
