// Package blob defines the multipart blob store contract used by the transfer.
//
// Implementations live in the subpackages: s3store (AWS SDK), miniostore
// (S3-compatible servers via minio-go) and localstore (a billy filesystem).
// Every implementation must be safe for concurrent UploadPart calls on the
// same upload.
package blob

import (
	"context"
	"crypto/md5"
	"encoding/base64"

	"github.com/gabriel-vasile/mimetype"
)

// UploadOptions are applied when a multipart upload is initiated.
type UploadOptions struct {
	ContentType  string
	StorageClass string
	KMSKeyID     string
}

// Part is one numbered chunk of a multipart upload.
type Part struct {
	Bucket   string
	Key      string
	UploadID string
	Number   int32
	Data     []byte

	// ContentMD5 is the base64 MD5 digest of Data. Stores must have the provider verify it.
	ContentMD5 string
}

// CompletedPart identifies an uploaded part when completing an upload.
type CompletedPart struct {
	Number int32
	ETag   string
}

// Store is a blob store supporting multipart uploads.
type Store interface {
	// InitiateMultipartUpload starts an upload and returns its id.
	InitiateMultipartUpload(ctx context.Context, bucket, key string, opts UploadOptions) (string, error)

	// UploadPart uploads one part and returns its entity tag.
	UploadPart(ctx context.Context, part Part) (string, error)

	// CompleteMultipartUpload assembles the parts, which must be in ascending order.
	CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart) error

	// AbortMultipartUpload discards an upload and its parts.
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error
}

// ContentMD5 returns the base64 encoded MD5 digest of data, as sent in a Content-MD5 header.
func ContentMD5(data []byte) string {
	sum := md5.Sum(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// DetectContentType detects the MIME type of a file from its first part.
// Only the leading bytes are inspected.
func DetectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}
