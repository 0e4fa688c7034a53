// Package validation provides centralized input validation logic.
// This includes bucket name, object key, folder prefix and storage class checks.
//
// Configured and generated names are validated before any call to the
// storage provider so that a misconfigured run fails before doing I/O.
package validation

import (
	"net/netip"
	"path/filepath"
	"strings"
	"unicode"

	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
)

// maxObjectKeyLength is the S3 limit on object key length in bytes.
const maxObjectKeyLength = 1024

// ValidateBucketName checks a bucket name against the S3 naming rules.
// Failures wrap ErrInvalidBucketName.
func ValidateBucketName(bucket string) error {
	switch {
	case bucket == "":
		return invalidBucket(bucket, "bucket name cannot be empty")
	case len(bucket) < 3 || len(bucket) > 63:
		return invalidBucket(bucket, "bucket name must be between 3 and 63 characters long")
	case strings.IndexFunc(bucket, func(r rune) bool { return !isBucketRune(r) }) >= 0:
		return invalidBucket(bucket, "bucket name can only contain lowercase letters, numbers, dots, and hyphens")
	case strings.ContainsAny(bucket[:1], ".-") || strings.ContainsAny(bucket[len(bucket)-1:], ".-"):
		return invalidBucket(bucket, "bucket name cannot start or end with a hyphen or dot")
	case strings.Contains(bucket, ".."):
		return invalidBucket(bucket, "bucket name cannot contain two adjacent periods")
	}
	if addr, err := netip.ParseAddr(bucket); err == nil && addr.Is4() {
		return invalidBucket(bucket, "bucket name cannot be formatted as an IP address")
	}
	return nil
}

func invalidBucket(bucket, msg string) error {
	return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).WithBucket(bucket).WithMessage(msg)
}

func isBucketRune(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || r == '.' || r == '-'
}

// ValidateObjectKey rejects keys S3 would refuse and keys that could escape the
// bucket directory of the local store.
func ValidateObjectKey(key string) error {
	var msg string
	switch {
	case key == "":
		msg = "object key cannot be empty"
	case hasPathTraversal(key):
		msg = "object key cannot contain path traversal sequences"
	case len(key) > maxObjectKeyLength:
		msg = "object key cannot exceed 1024 characters"
	case strings.IndexFunc(key, unicode.IsControl) >= 0:
		msg = "object key cannot contain control characters"
	default:
		return nil
	}
	return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).WithKey(key).WithMessage(msg)
}

// ValidateFolder validates an optional key prefix. An empty folder is valid.
func ValidateFolder(folder string) error {
	if folder == "" {
		return nil
	}
	if strings.HasPrefix(folder, "/") || strings.HasSuffix(folder, "/") {
		return errors.NewError("validateFolder", errors.ErrInvalidObjectKey).
			WithKey(folder).
			WithMessage("folder cannot start or end with a slash")
	}
	return ValidateObjectKey(folder)
}

// ValidateStorageClass validates an optional S3 storage class against the SDK's known values.
func ValidateStorageClass(class string) error {
	if class == "" {
		return nil
	}
	for _, known := range awstypes.StorageClass("").Values() {
		if string(known) == class {
			return nil
		}
	}
	return errors.NewError("validateStorageClass", errors.ErrInvalidConfig).
		WithMessage("unknown storage class " + class)
}

// hasPathTraversal reports parent references and absolute paths, including drive letters.
func hasPathTraversal(key string) bool {
	if strings.Contains(key, "..") {
		return true
	}
	cleaned := filepath.Clean(key)
	return strings.HasPrefix(cleaned, "/") ||
		(len(cleaned) >= 3 && cleaned[1] == ':' && strings.ContainsAny(cleaned[2:3], `\/`))
}
