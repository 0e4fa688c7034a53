// Package errors provides error types and handling for queue-to-blob transfers.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a transfer operation error with context about the operation that failed.
// It wraps the underlying SDK error with the bucket and key being written, plus any
// diagnostics reported by the storage provider.
type Error struct {
	// Op is the operation that failed (e.g., "uploadPart", "finalize", "loadConfig")
	Op string

	// Bucket is the destination bucket name (if applicable)
	Bucket string

	// Key is the destination object key (if applicable)
	Key string

	// ProviderCode is the error code reported by the storage provider (if known)
	ProviderCode string

	// RequestID is the provider request id of the failed call (if known)
	RequestID string

	// StatusCode is the HTTP status returned by the provider (if known)
	StatusCode int

	// Err is the underlying error from the SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("sqs2s3.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("sqs2s3.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("sqs2s3.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("sqs2s3.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// WithProvider records the provider's diagnostic payload on the error.
func (e *Error) WithProvider(code, requestID string, status int) *Error {
	e.ProviderCode = code
	e.RequestID = requestID
	e.StatusCode = status
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors for the failure classes of a transfer run.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidConfig indicates that the runtime configuration is invalid
	ErrInvalidConfig = errors.New("sqs2s3: invalid configuration")

	// ErrInsufficientTime indicates that the invocation started with less time than the stop threshold
	ErrInsufficientTime = errors.New("sqs2s3: insufficient remaining time")

	// ErrInvalidFilePattern indicates that the file naming pattern cannot be resolved
	ErrInvalidFilePattern = errors.New("sqs2s3: invalid file pattern")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("sqs2s3: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("sqs2s3: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("sqs2s3: invalid object key")

	// ErrUploadNotActive indicates an operation on a multipart upload that is not active
	ErrUploadNotActive = errors.New("sqs2s3: multipart upload not active")

	// ErrPartUpload indicates that at least one part of a multipart upload failed
	ErrPartUpload = errors.New("sqs2s3: part upload failed")

	// ErrFinalize indicates that a multipart upload could not be completed and was aborted
	ErrFinalize = errors.New("sqs2s3: finalize failed")

	// ErrChecksumMismatch indicates that a part's content did not match its checksum
	ErrChecksumMismatch = errors.New("sqs2s3: checksum mismatch")

	// ErrQueueReceive indicates that records could not be received from the queue
	ErrQueueReceive = errors.New("sqs2s3: queue receive failed")
)

// IsInvalidConfig checks if an error is a configuration error.
// Insufficient remaining time at startup is reported as a configuration error too.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig) || errors.Is(err, ErrInsufficientTime)
}

// IsPartUpload checks if an error indicates a failed part upload.
func IsPartUpload(err error) bool {
	return errors.Is(err, ErrPartUpload)
}

// IsFinalize checks if an error indicates a failed multipart finalize.
func IsFinalize(err error) bool {
	return errors.Is(err, ErrFinalize)
}

// IsUploadNotActive checks if an error indicates misuse of an inactive multipart upload.
func IsUploadNotActive(err error) bool {
	return errors.Is(err, ErrUploadNotActive)
}
