// Package miniostore implements blob.Store on S3-compatible servers through minio-go's Core API.
package miniostore

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob"
)

// CoreAPI is the subset of minio.Core used by the store.
type CoreAPI interface {
	NewMultipartUpload(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error)
	PutObjectPart(
		ctx context.Context,
		bucket, object, uploadID string,
		partID int,
		data io.Reader,
		size int64,
		opts minio.PutObjectPartOptions,
	) (minio.ObjectPart, error)
	CompleteMultipartUpload(
		ctx context.Context,
		bucket, object, uploadID string,
		parts []minio.CompletePart,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error
}

var _ CoreAPI = (*minio.Core)(nil)

// Options configure the connection to the server.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
	Region    string
}

// Store handles multipart uploads against a MinIO or other S3-compatible server.
type Store struct {
	core CoreAPI
}

// New connects to the server described by opts.
func New(opts Options) (*Store, error) {
	core, err := minio.NewCore(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, errors.NewError("newMinioClient", err).WithMessage("endpoint " + opts.Endpoint)
	}
	return NewWithCore(core), nil
}

// NewWithCore creates a Store on an existing core client. Useful for tests.
func NewWithCore(core CoreAPI) *Store {
	return &Store{core: core}
}

var _ blob.Store = (*Store)(nil)

// InitiateMultipartUpload implements blob.Store.
func (s *Store) InitiateMultipartUpload(
	ctx context.Context,
	bucket, key string,
	opts blob.UploadOptions,
) (string, error) {
	putOpts := minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		StorageClass: opts.StorageClass,
	}
	if opts.KMSKeyID != "" {
		sse, err := encrypt.NewSSEKMS(opts.KMSKeyID, nil)
		if err != nil {
			return "", errors.NewError("createMultipartUpload", errors.ErrInvalidConfig).
				WithBucket(bucket).WithKey(key).WithMessage(err.Error())
		}
		putOpts.ServerSideEncryption = sse
	}

	uploadID, err := s.core.NewMultipartUpload(ctx, bucket, key, putOpts)
	if err != nil {
		return "", wrap("createMultipartUpload", bucket, key, err)
	}
	return uploadID, nil
}

// UploadPart implements blob.Store. The server verifies the part against its MD5.
func (s *Store) UploadPart(ctx context.Context, part blob.Part) (string, error) {
	uploaded, err := s.core.PutObjectPart(ctx,
		part.Bucket, part.Key, part.UploadID,
		int(part.Number),
		bytes.NewReader(part.Data),
		int64(len(part.Data)),
		minio.PutObjectPartOptions{Md5Base64: part.ContentMD5},
	)
	if err != nil {
		return "", wrap("uploadPart", part.Bucket, part.Key, err)
	}
	return uploaded.ETag, nil
}

// CompleteMultipartUpload implements blob.Store.
func (s *Store) CompleteMultipartUpload(
	ctx context.Context,
	bucket, key, uploadID string,
	parts []blob.CompletedPart,
) error {
	completed := make([]minio.CompletePart, len(parts))
	for i, p := range parts {
		completed[i] = minio.CompletePart{PartNumber: int(p.Number), ETag: p.ETag}
	}
	if _, err := s.core.CompleteMultipartUpload(ctx, bucket, key, uploadID, completed, minio.PutObjectOptions{}); err != nil {
		return wrap("completeMultipartUpload", bucket, key, err)
	}
	return nil
}

// AbortMultipartUpload implements blob.Store.
func (s *Store) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	if err := s.core.AbortMultipartUpload(ctx, bucket, key, uploadID); err != nil {
		return wrap("abortMultipartUpload", bucket, key, err)
	}
	return nil
}

// wrap attaches the server's error response to the operation error.
func wrap(op, bucket, key string, err error) error {
	e := errors.NewObjectError(op, bucket, key, err)
	if resp := minio.ToErrorResponse(err); resp.Code != "" {
		e.WithProvider(resp.Code, resp.RequestID, resp.StatusCode)
	}
	return e
}
