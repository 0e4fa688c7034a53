package s3store

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqs2s3errors "github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/testutil"
)

func TestStore_InitiateMultipartUpload(t *testing.T) {
	tests := []struct {
		name   string
		opts   blob.UploadOptions
		verify func(t *testing.T, input *s3.CreateMultipartUploadInput)
	}{
		{
			name: "plain",
			opts: blob.UploadOptions{},
			verify: func(t *testing.T, input *s3.CreateMultipartUploadInput) {
				assert.Nil(t, input.ContentType)
				assert.Empty(t, input.StorageClass)
				assert.Empty(t, input.ServerSideEncryption)
			},
		},
		{
			name: "content type and storage class",
			opts: blob.UploadOptions{ContentType: "application/json", StorageClass: "STANDARD_IA"},
			verify: func(t *testing.T, input *s3.CreateMultipartUploadInput) {
				assert.Equal(t, "application/json", aws.ToString(input.ContentType))
				assert.Equal(t, awstypes.StorageClassStandardIa, input.StorageClass)
			},
		},
		{
			name: "kms",
			opts: blob.UploadOptions{KMSKeyID: "alias/archive"},
			verify: func(t *testing.T, input *s3.CreateMultipartUploadInput) {
				assert.Equal(t, awstypes.ServerSideEncryptionAwsKms, input.ServerSideEncryption)
				assert.Equal(t, "alias/archive", aws.ToString(input.SSEKMSKeyId))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *s3.CreateMultipartUploadInput
			client := &testutil.MockS3Client{
				CreateMultipartUploadFunc: func(_ context.Context, input *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
					got = input
					return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1")}, nil
				},
			}

			id, err := New(client).InitiateMultipartUpload(context.Background(), "archive", "exports/a.json", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, "upload-1", id)
			require.NotNil(t, got)
			assert.Equal(t, "archive", aws.ToString(got.Bucket))
			assert.Equal(t, "exports/a.json", aws.ToString(got.Key))
			tt.verify(t, got)
		})
	}
}

func TestStore_UploadPart(t *testing.T) {
	data := []byte("one\ntwo\n")
	var got *s3.UploadPartInput
	var body []byte

	client := testutil.NewMockBuilder().
		WithUploadPart(func(_ context.Context, input *s3.UploadPartInput) (*s3.UploadPartOutput, error) {
			got = input
			var err error
			body, err = io.ReadAll(input.Body)
			require.NoError(t, err)
			return &s3.UploadPartOutput{ETag: aws.String(testutil.CalculateETag(body))}, nil
		}).
		Build()

	etag, err := New(client).UploadPart(context.Background(), blob.Part{
		Bucket: "archive", Key: "k", UploadID: "upload-1",
		Number: 3, Data: data, ContentMD5: blob.ContentMD5(data),
	})
	require.NoError(t, err)

	assert.Equal(t, testutil.CalculateETag(data), etag)
	assert.Equal(t, data, body)
	assert.Equal(t, int32(3), aws.ToInt32(got.PartNumber))
	assert.Equal(t, "upload-1", aws.ToString(got.UploadId))
	assert.Equal(t, blob.ContentMD5(data), aws.ToString(got.ContentMD5))
	assert.Equal(t, int64(len(data)), aws.ToInt64(got.ContentLength))
}

func TestStore_CompleteMultipartUpload(t *testing.T) {
	var got *s3.CompleteMultipartUploadInput
	client := testutil.NewMockBuilder().
		WithCompleteMultipartUpload(func(_ context.Context, input *s3.CompleteMultipartUploadInput) (*s3.CompleteMultipartUploadOutput, error) {
			got = input
			return &s3.CompleteMultipartUploadOutput{}, nil
		}).
		Build()

	err := New(client).CompleteMultipartUpload(context.Background(), "archive", "k", "upload-1", []blob.CompletedPart{
		{Number: 1, ETag: `"a"`},
		{Number: 2, ETag: `"b"`},
	})
	require.NoError(t, err)

	require.NotNil(t, got.MultipartUpload)
	require.Len(t, got.MultipartUpload.Parts, 2)
	for i, p := range got.MultipartUpload.Parts {
		assert.Equal(t, int32(i+1), aws.ToInt32(p.PartNumber))
	}
	assert.Equal(t, `"b"`, aws.ToString(got.MultipartUpload.Parts[1].ETag))
}

func TestStore_Errors(t *testing.T) {
	sdkErr := errors.New("access denied")
	store := New(testutil.NewMockBuilder().WithError(sdkErr).Build())
	ctx := context.Background()

	_, err := store.InitiateMultipartUpload(ctx, "archive", "k", blob.UploadOptions{})
	assertOpError(t, err, sdkErr, "createMultipartUpload")

	_, err = store.UploadPart(ctx, blob.Part{Bucket: "archive", Key: "k", Number: 1})
	assertOpError(t, err, sdkErr, "uploadPart")

	err = store.CompleteMultipartUpload(ctx, "archive", "k", "id", nil)
	assertOpError(t, err, sdkErr, "completeMultipartUpload")

	err = store.AbortMultipartUpload(ctx, "archive", "k", "id")
	assertOpError(t, err, sdkErr, "abortMultipartUpload")
}

func assertOpError(t *testing.T, err, cause error, op string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var opErr *sqs2s3errors.Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, op, opErr.Op)
	assert.Equal(t, "archive", opErr.Bucket)
	assert.Equal(t, "k", opErr.Key)
}

func TestStore_AbortMultipartUpload(t *testing.T) {
	var got *s3.AbortMultipartUploadInput
	client := testutil.NewMockBuilder().
		WithAbortMultipartUpload(func(_ context.Context, input *s3.AbortMultipartUploadInput) (*s3.AbortMultipartUploadOutput, error) {
			got = input
			return &s3.AbortMultipartUploadOutput{}, nil
		}).
		Build()

	require.NoError(t, New(client).AbortMultipartUpload(context.Background(), "archive", "k", "upload-1"))
	assert.Equal(t, "archive", aws.ToString(got.Bucket))
	assert.Equal(t, "k", aws.ToString(got.Key))
	assert.Equal(t, "upload-1", aws.ToString(got.UploadId))
}
