// Package testutil provides a builder for creating mock S3 clients.
package testutil

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MockBuilder provides a fluent interface for building MockS3Client instances.
type MockBuilder struct {
	client *MockS3Client
}

// NewMockBuilder creates a new MockBuilder.
func NewMockBuilder() *MockBuilder {
	return &MockBuilder{
		client: &MockS3Client{},
	}
}

// Build returns the configured MockS3Client.
func (b *MockBuilder) Build() *MockS3Client {
	return b.client
}

// WithUploadID makes CreateMultipartUpload return the given upload id.
func (b *MockBuilder) WithUploadID(uploadID string) *MockBuilder {
	b.client.CreateMultipartUploadFunc = func(_ context.Context, _ *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		return &s3.CreateMultipartUploadOutput{UploadId: aws.String(uploadID)}, nil
	}
	return b
}

// WithUploadPart configures the UploadPart behavior.
func (b *MockBuilder) WithUploadPart(
	fn func(context.Context, *s3.UploadPartInput) (*s3.UploadPartOutput, error),
) *MockBuilder {
	b.client.UploadPartFunc = func(ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithCompleteMultipartUpload configures the CompleteMultipartUpload behavior.
func (b *MockBuilder) WithCompleteMultipartUpload(
	fn func(context.Context, *s3.CompleteMultipartUploadInput) (*s3.CompleteMultipartUploadOutput, error),
) *MockBuilder {
	b.client.CompleteMultipartUploadFunc = func(ctx context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithAbortMultipartUpload configures the AbortMultipartUpload behavior.
func (b *MockBuilder) WithAbortMultipartUpload(
	fn func(context.Context, *s3.AbortMultipartUploadInput) (*s3.AbortMultipartUploadOutput, error),
) *MockBuilder {
	b.client.AbortMultipartUploadFunc = func(ctx context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
		return fn(ctx, params)
	}
	return b
}

// WithError makes every operation fail with err.
func (b *MockBuilder) WithError(err error) *MockBuilder {
	if err == nil {
		err = errors.New("mock error")
	}
	b.client.CreateMultipartUploadFunc = func(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		return nil, err
	}
	b.client.UploadPartFunc = func(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		return nil, err
	}
	b.client.CompleteMultipartUploadFunc = func(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
		return nil, err
	}
	b.client.AbortMultipartUploadFunc = func(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
		return nil, err
	}
	return b
}
