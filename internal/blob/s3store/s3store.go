// Package s3store implements blob.Store on Amazon S3 multipart uploads.
package s3store

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/blob"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/s3api"
)

// Store handles multipart uploads against S3 or an S3-compatible endpoint.
type Store struct {
	s3Client s3api.S3API
}

// New creates a Store backed by the given S3 client.
func New(s3Client s3api.S3API) *Store {
	return &Store{s3Client: s3Client}
}

var _ blob.Store = (*Store)(nil)

// InitiateMultipartUpload creates a new multipart upload.
func (s *Store) InitiateMultipartUpload(
	ctx context.Context,
	bucket, key string,
	opts blob.UploadOptions,
) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	// Set storage class if specified
	if opts.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(opts.StorageClass)
	}

	// Set SSE-KMS if a key is configured
	if opts.KMSKeyID != "" {
		input.ServerSideEncryption = awstypes.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(opts.KMSKeyID)
	}

	output, err := s.s3Client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", errors.NewError("createMultipartUpload", err).WithBucket(bucket).WithKey(key)
	}

	return aws.ToString(output.UploadId), nil
}

// UploadPart uploads a single part with its Content-MD5 so that S3 rejects corrupted bodies.
func (s *Store) UploadPart(ctx context.Context, part blob.Part) (string, error) {
	input := &s3.UploadPartInput{
		Bucket:        aws.String(part.Bucket),
		Key:           aws.String(part.Key),
		UploadId:      aws.String(part.UploadID),
		PartNumber:    aws.Int32(part.Number),
		Body:          bytes.NewReader(part.Data),
		ContentLength: aws.Int64(int64(len(part.Data))),
		ContentMD5:    aws.String(part.ContentMD5),
	}

	output, err := s.s3Client.UploadPart(ctx, input)
	if err != nil {
		return "", errors.NewError("uploadPart", err).WithBucket(part.Bucket).WithKey(part.Key)
	}

	return aws.ToString(output.ETag), nil
}

// CompleteMultipartUpload completes the multipart upload with the ordered part list.
func (s *Store) CompleteMultipartUpload(
	ctx context.Context,
	bucket, key, uploadID string,
	parts []blob.CompletedPart,
) error {
	completed := make([]awstypes.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = awstypes.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.Number),
		}
	}

	input := &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: completed,
		},
	}

	if _, err := s.s3Client.CompleteMultipartUpload(ctx, input); err != nil {
		return errors.NewError("completeMultipartUpload", err).WithBucket(bucket).WithKey(key)
	}
	return nil
}

// AbortMultipartUpload discards a multipart upload and its stored parts.
func (s *Store) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	input := &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	}
	if _, err := s.s3Client.AbortMultipartUpload(ctx, input); err != nil {
		return errors.NewError("abortMultipartUpload", err).WithBucket(bucket).WithKey(key)
	}
	return nil
}
