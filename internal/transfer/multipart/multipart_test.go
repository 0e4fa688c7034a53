package multipart_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqs2s3errors "github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/transfer/multipart"
)

func part(s string) *bytes.Buffer {
	return bytes.NewBufferString(s)
}

func TestUploader_Lifecycle(t *testing.T) {
	for _, workers := range []int{0, 1, 4} {
		t.Run(map[int]string{0: "inline", 1: "one worker", 4: "four workers"}[workers], func(t *testing.T) {
			store := testutil.NewFakeStore()
			ctx := context.Background()

			u, err := multipart.Start(ctx, store, "archive", "exports/a.json", multipart.Options{
				UploadOptions: blob.UploadOptions{ContentType: "application/json"},
				Workers:       workers,
			})
			require.NoError(t, err)
			assert.Equal(t, multipart.Active, u.State())
			assert.Equal(t, "exports/a.json", u.Key())
			assert.NotEmpty(t, u.UploadID())

			for i, chunk := range []string{"[A,", "B,", "C]"} {
				n, err := u.UploadPart(ctx, part(chunk))
				require.NoError(t, err)
				assert.Equal(t, int32(i+1), n)
			}
			assert.Equal(t, 3, u.Parts())

			require.NoError(t, u.Finalize(ctx))
			assert.Equal(t, multipart.Finalized, u.State())

			obj, ok := store.Object("archive", "exports/a.json")
			require.True(t, ok)
			assert.Equal(t, "[A,B,C]", string(obj))
			assert.Equal(t, "application/json", store.Options("archive", "exports/a.json").ContentType)
			assert.Empty(t, store.Aborted())
		})
	}
}

func TestUploader_PartNumbersFollowSubmissionOrder(t *testing.T) {
	store := testutil.NewFakeStore()
	// Earlier parts finish last.
	store.PartDelay = func(n int32) time.Duration {
		return time.Duration(4-n) * 20 * time.Millisecond
	}
	ctx := context.Background()

	u, err := multipart.Start(ctx, store, "archive", "k", multipart.Options{Workers: 3})
	require.NoError(t, err)
	for _, chunk := range []string{"1", "2", "3"} {
		_, err := u.UploadPart(ctx, part(chunk))
		require.NoError(t, err)
	}
	require.NoError(t, u.Finalize(ctx))

	assert.Equal(t, []int32{3, 2, 1}, store.ReceivedParts())
	completed := store.Completed(u.UploadID())
	require.Len(t, completed, 3)
	for i, p := range completed {
		assert.Equal(t, int32(i+1), p.Number)
	}
	obj, _ := store.Object("archive", "k")
	assert.Equal(t, "123", string(obj))
}

func TestUploader_PartFailureAbortsOnce(t *testing.T) {
	for _, workers := range []int{0, 2} {
		t.Run(map[int]string{0: "inline", 2: "pooled"}[workers], func(t *testing.T) {
			store := testutil.NewFakeStore()
			cause := errors.New("connection reset")
			store.FailPart = func(p blob.Part) error {
				if p.Number == 2 {
					return cause
				}
				return nil
			}
			ctx := context.Background()

			u, err := multipart.Start(ctx, store, "archive", "k", multipart.Options{Workers: workers})
			require.NoError(t, err)
			for _, chunk := range []string{"a", "b", "c"} {
				_, err := u.UploadPart(ctx, part(chunk))
				require.NoError(t, err, "part failures are deferred to finalize")
			}

			err = u.Finalize(ctx)
			require.Error(t, err)
			assert.True(t, sqs2s3errors.IsFinalize(err))
			assert.True(t, sqs2s3errors.IsPartUpload(err))
			assert.ErrorIs(t, err, cause)

			assert.Equal(t, multipart.Aborted, u.State())
			assert.Equal(t, []string{u.UploadID()}, store.Aborted())
			assert.Zero(t, store.CompleteCount())
			_, ok := store.Object("archive", "k")
			assert.False(t, ok)
		})
	}
}

func TestUploader_CompleteFailureAborts(t *testing.T) {
	store := testutil.NewFakeStore()
	store.FailComplete = errors.New("InvalidPart")
	ctx := context.Background()

	u, err := multipart.Start(ctx, store, "archive", "k", multipart.Options{Workers: 2})
	require.NoError(t, err)
	_, err = u.UploadPart(ctx, part("x"))
	require.NoError(t, err)

	err = u.Finalize(ctx)
	require.Error(t, err)
	assert.True(t, sqs2s3errors.IsFinalize(err))
	assert.False(t, sqs2s3errors.IsPartUpload(err))
	assert.Equal(t, multipart.Aborted, u.State())
	assert.Len(t, store.Aborted(), 1)
}

func TestUploader_NotActive(t *testing.T) {
	store := testutil.NewFakeStore()
	ctx := context.Background()

	u, err := multipart.Start(ctx, store, "archive", "k", multipart.Options{})
	require.NoError(t, err)
	_, err = u.UploadPart(ctx, part("x"))
	require.NoError(t, err)
	require.NoError(t, u.Finalize(ctx))

	_, err = u.UploadPart(ctx, part("y"))
	assert.True(t, sqs2s3errors.IsUploadNotActive(err))

	err = u.Finalize(ctx)
	assert.True(t, sqs2s3errors.IsUploadNotActive(err))
	assert.Equal(t, 1, store.CompleteCount())
}

func TestUploader_StartFailure(t *testing.T) {
	store := testutil.NewFakeStore()
	store.FailInitiate = errors.New("AccessDenied")

	u, err := multipart.Start(context.Background(), store, "archive", "k", multipart.Options{})
	require.Error(t, err)
	assert.Nil(t, u)
}

func TestUploader_PartsSurviveCancellation(t *testing.T) {
	store := testutil.NewFakeStore()
	store.PartDelay = func(int32) time.Duration { return 30 * time.Millisecond }
	ctx, cancel := context.WithCancel(context.Background())

	u, err := multipart.Start(ctx, store, "archive", "k", multipart.Options{Workers: 2})
	require.NoError(t, err)
	_, err = u.UploadPart(ctx, part("late"))
	require.NoError(t, err)
	cancel()

	require.NoError(t, u.Finalize(context.Background()))
	obj, _ := store.Object("archive", "k")
	assert.Equal(t, "late", string(obj))
}

// contextStore fails completion when it is handed a cancelled context.
type contextStore struct {
	*testutil.FakeStore
}

func (s contextStore) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []blob.CompletedPart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.FakeStore.CompleteMultipartUpload(ctx, bucket, key, uploadID, parts)
}

func TestUploader_CompletesAfterCancellation(t *testing.T) {
	store := contextStore{testutil.NewFakeStore()}
	ctx, cancel := context.WithCancel(context.Background())

	u, err := multipart.Start(ctx, store, "archive", "k", multipart.Options{Workers: 2})
	require.NoError(t, err)
	_, err = u.UploadPart(ctx, part("done"))
	require.NoError(t, err)
	cancel()

	require.NoError(t, u.Finalize(ctx))
	assert.Equal(t, multipart.Finalized, u.State())
	assert.Empty(t, store.Aborted())
	obj, _ := store.Object("archive", "k")
	assert.Equal(t, "done", string(obj))
}

func TestUploader_ReturnsBuffersToPool(t *testing.T) {
	store := testutil.NewFakeStore()
	p := pool.NewBufferPool(16)
	ctx := context.Background()

	u, err := multipart.Start(ctx, store, "archive", "k", multipart.Options{Workers: 1, Pool: p})
	require.NoError(t, err)

	buf := p.Get()
	buf.WriteString("payload")
	_, err = u.UploadPart(ctx, buf)
	require.NoError(t, err)
	require.NoError(t, u.Finalize(ctx))

	// The store kept its own copy; the pooled buffer was reset.
	obj, _ := store.Object("archive", "k")
	assert.Equal(t, "payload", string(obj))
	assert.Zero(t, buf.Len())
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state multipart.State
		want  string
	}{
		{multipart.Uninitiated, "uninitiated"},
		{multipart.Active, "active"},
		{multipart.Finalized, "finalized"},
		{multipart.Aborted, "aborted"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
