package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []*awss3.PutObjectInput

	getErr error
	putErr error
	// raced simulates another writer creating the object between our
	// GetObject and conditional PutObject.
	raced []byte
}

func newFakeClient() *fakeClient { return &fakeClient{objects: map[string][]byte{}} }

func (f *fakeClient) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeClient) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	key := aws.ToString(in.Key)
	if f.raced != nil {
		f.objects[key] = f.raced
		f.raced = nil
	}
	if aws.ToString(in.IfNoneMatch) == "*" {
		if _, exists := f.objects[key]; exists {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "exists"}
		}
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = b
	return &awss3.PutObjectOutput{}, nil
}

func TestArchiveRepo_KeyLayout(t *testing.T) {
	t.Parallel()

	uid := uuid.Must(uuid.FromString("6f1cbe8e-b2e7-4a3b-9f6e-2a2c0f2f9c11"))
	require.Equal(t, "archives/6f1cbe8e-b2e7-4a3b-9f6e-2a2c0f2f9c11/fuel-tracker-data.json",
		NewArchiveRepo(newFakeClient(), "b", "").key(uid))
	require.Equal(t, "tenant/x/6f1cbe8e-b2e7-4a3b-9f6e-2a2c0f2f9c11/fuel-tracker-data.json",
		NewArchiveRepo(newFakeClient(), "b", "/tenant/x/").key(uid))
}

func TestArchiveRepo_GetOrCreate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fc := newFakeClient()
	r := NewArchiveRepo(fc, "bucket", "")
	uid := uuid.Must(uuid.NewV4())

	doc, created, err := r.GetOrCreate(ctx, uid, []byte(`{}`))
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, `{}`, string(doc))
	require.Len(t, fc.puts, 1)
	require.Equal(t, "bucket", aws.ToString(fc.puts[0].Bucket))
	require.Equal(t, "application/json", aws.ToString(fc.puts[0].ContentType))

	require.NoError(t, r.Put(ctx, uid, []byte(`{"version":1}`)))

	doc, created, err = r.GetOrCreate(ctx, uid, []byte(`{}`))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, `{"version":1}`, string(doc))
}

func TestArchiveRepo_GetOrCreate_LostRace(t *testing.T) {
	t.Parallel()

	fc := newFakeClient()
	fc.raced = []byte(`{"vehicles":[]}`)
	r := NewArchiveRepo(fc, "bucket", "")

	doc, created, err := r.GetOrCreate(context.Background(), uuid.Must(uuid.NewV4()), []byte(`{}`))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, `{"vehicles":[]}`, string(doc))
}

func TestArchiveRepo_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())

	fc := newFakeClient()
	fc.getErr = &smithy.GenericAPIError{Code: "AccessDenied"}
	_, _, err := NewArchiveRepo(fc, "b", "").GetOrCreate(ctx, uid, []byte(`{}`))
	require.Error(t, err)
	require.Empty(t, fc.puts, "must not create on non-404 errors")

	fc = newFakeClient()
	fc.putErr = errors.New("network")
	_, _, err = NewArchiveRepo(fc, "b", "").GetOrCreate(ctx, uid, []byte(`{}`))
	require.Error(t, err)
	require.Error(t, NewArchiveRepo(fc, "b", "").Put(ctx, uid, []byte(`{}`)))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	require.True(t, isNotFound(&types.NoSuchKey{}))
	require.True(t, isNotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	require.False(t, isNotFound(errors.New("x")))
	require.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
}
